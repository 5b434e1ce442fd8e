package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/mcdexio/yield-battle-vault/leaderboard"
	"github.com/mcdexio/yield-battle-vault/ledger"
	"github.com/mcdexio/yield-battle-vault/metrics"
	"github.com/mcdexio/yield-battle-vault/profile"
	"github.com/mcdexio/yield-battle-vault/vault"
)

// CallerHeader carries the address on whose behalf a request acts.
const CallerHeader = "X-Caller-Address"

const requestIDHeader = "X-Request-Id"

// Services are the components served by the public api.
type Services struct {
	Vault    *vault.Vault
	Board    *leaderboard.Board
	Profiles *profile.Registry
	Ledger   ledger.Ledger
}

// Server is the public JSON api.
type Server struct {
	ctx      context.Context
	logger   logging.Logger
	vault    *vault.Vault
	board    *leaderboard.Board
	profiles *profile.Registry
	ledger   ledger.Ledger
	router   chi.Router
	server   *http.Server
}

// NewServer mounts the routes. addr is the listen address, ":9487" if empty.
func NewServer(ctx context.Context, logger logging.Logger, svc Services, addr string) *Server {
	if addr == "" {
		addr = ":9487"
	}
	s := &Server{
		ctx:      ctx,
		logger:   logger,
		vault:    svc.Vault,
		board:    svc.Board,
		profiles: svc.Profiles,
		ledger:   svc.Ledger,
	}
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Route("/vault", func(r chi.Router) {
		r.Post("/deposit", s.OnDeposit)
		r.Post("/withdraw", s.OnWithdraw)
		r.Post("/withdraw-all", s.OnWithdrawAll)
		r.Post("/claim", s.OnClaimYield)
	})
	r.Get("/positions/{address}", s.OnQueryPosition)
	r.Get("/stats", s.OnQueryStats)
	r.Post("/rewards/fund", s.OnFundRewards)

	r.Route("/battles", func(r chi.Router) {
		r.Get("/", s.OnListBattles)
		r.Post("/", s.OnCreateBattle)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.OnQueryBattle)
			r.Get("/winners", s.OnQueryWinners)
			r.Get("/participants", s.OnQueryParticipants)
			r.Post("/join", s.OnJoinBattle)
			r.Post("/close", s.OnCloseBattle)
			r.Post("/seed", s.OnSeedBattle)
		})
	})

	r.Route("/leaderboard", func(r chi.Router) {
		r.Get("/top", s.OnQueryTop)
		r.Get("/rank/{address}", s.OnQueryRank)
		r.Get("/stats", s.OnQueryBoardStats)
	})

	r.Route("/profiles", func(r chi.Router) {
		r.Post("/", s.OnRegister)
		r.Put("/", s.OnUpdateProfile)
		r.Get("/available/{username}", s.OnQueryUsername)
		r.Get("/{address}", s.OnQueryProfile)
	})

	r.Route("/ledger", func(r chi.Router) {
		r.Post("/mint", s.OnMint)
		r.Post("/approve", s.OnApprove)
		r.Get("/balance/{address}", s.OnQueryBalance)
		r.Get("/transfers/{address}", s.OnQueryTransfers)
	})

	s.router = r
	s.server = &http.Server{
		Addr:         addr,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 25,
		Handler:      r,
	}
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Run serves until ctx is cancelled.
func (s *Server) Run() error {
	s.logger.Info("Starting vault api httpserver on %s", s.server.Addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-s.ctx.Done():
		s.logger.Info("Api server receives shutdown signal.")
		return s.Shutdown()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("Server closed under request")
			return nil
		}
		s.logger.Error("Server closed unexpected: %s", err)
		return err
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
