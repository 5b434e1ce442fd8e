package vault

import "context"

// Store owns the keyed vault records. Implementations live under store/.
type Store interface {
	// Update runs fn in a read-write transaction. fn receives a context bound to the
	// transaction; ledger calls made with it commit or roll back together with the records.
	// Any error returned by fn rolls everything back.
	Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View runs fn against a consistent committed snapshot. Writes through tx fail.
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the record access of one transaction. Getters return nil without error for absent
// records. Returned records are copies; changes need a Save.
type Tx interface {
	GetPosition(user string) (*Position, error)
	SavePosition(p *Position) error
	ListPositions() ([]*Position, error)

	GetBattle(id uint64) (*Battle, error)
	SaveBattle(b *Battle) error

	GetParticipant(battleID uint64, user string) (*Participant, error)
	ListParticipants(battleID uint64) ([]*Participant, error)
	SaveParticipant(p *Participant) error

	ListWinners(battleID uint64) ([]*Winner, error)
	SaveWinners(battleID uint64, winners []*Winner) error

	GetStats() (*Stats, error)
	SaveStats(s *Stats) error
}
