package cacher

import (
	"crypto/rand"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type CacherSuite struct {
	suite.Suite
}

func (s *CacherSuite) TestConst() {
	s.Require().Panics(func() {
		NewConst(nil)
	})
	s.Require().Panics(func() {
		NewConst(func() interface{} { return nil }).Get()
	})

	bCacher := NewConst(func() interface{} {
		b := make([]byte, 4)
		_, err := rand.Read(b)
		s.Require().NoError(err)
		return &b
	})
	s.Require().False(bCacher.IsLoaded())

	values := make([]*[]byte, 20)
	var wg sync.WaitGroup
	for k := 0; k < 20; k++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values[i] = bCacher.Get().(*[]byte)
		}(k)
	}
	wg.Wait()
	for k := 1; k < 20; k++ {
		s.Require().Same(values[0], values[k])
	}
	s.Require().True(bCacher.IsLoaded())

	bCacher.Clear()
	s.Require().False(bCacher.IsLoaded())
	s.Require().NotSame(values[0], bCacher.Get().(*[]byte))
}

func (s *CacherSuite) TestDerived() {
	source := 1
	fail := false
	d := NewDerived(func() (interface{}, error) {
		if fail {
			return nil, errors.New("source unavailable")
		}
		return source * 10, nil
	})

	v, err := d.Get()
	s.Require().NoError(err)
	s.Require().Equal(10, v)

	source = 2
	v, _ = d.Get()
	s.Require().Equal(10, v, "stale until invalidated")
	s.Require().Equal(1, d.Builds())

	d.Invalidate()
	v, _ = d.Get()
	s.Require().Equal(20, v)
	s.Require().Equal(2, d.Builds())

	fail = true
	d.Invalidate()
	_, err = d.Get()
	s.Require().Error(err)
	fail = false
	v, err = d.Get()
	s.Require().NoError(err)
	s.Require().Equal(20, v)
}

func TestCacher(t *testing.T) {
	suite.Run(t, new(CacherSuite))
}
