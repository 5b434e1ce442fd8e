package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mcdexio/yield-battle-vault/chain"
	"github.com/mcdexio/yield-battle-vault/ledger"
	"github.com/mcdexio/yield-battle-vault/vault"
	"github.com/shopspring/decimal"
)

type amountReq struct {
	Amount decimal.Decimal `json:"amount"`
}

type createBattleReq struct {
	Name            string          `json:"name"`
	EntryFee        decimal.Decimal `json:"entryFee"`
	MaxParticipants uint32          `json:"maxParticipants"`
	Duration        int64           `json:"duration"`
}

type usernameReq struct {
	Username string `json:"username"`
}

type mintReq struct {
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type approveReq struct {
	Spender string          `json:"spender"`
	Amount  decimal.Decimal `json:"amount"`
}

type withdrawAllResp struct {
	Principal decimal.Decimal `json:"principal"`
	Yield     decimal.Decimal `json:"yield"`
}

type balanceResp struct {
	Owner   string          `json:"owner"`
	Balance decimal.Decimal `json:"balance"`
	Symbol  string          `json:"symbol"`
}

type rankResp struct {
	User string `json:"user"`
	Rank int    `json:"rank"`
}

var okResp = map[string]string{"message": "Success"}

func decode(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, err)
	}
	return nil
}

// caller returns the address the request acts for.
func caller(r *http.Request) (string, error) {
	addr, err := chain.NormalizeAddress(r.Header.Get(CallerHeader))
	if err != nil {
		return "", vault.ErrInvalidAddress
	}
	return addr, nil
}

func addressParam(r *http.Request) (string, error) {
	addr, err := chain.NormalizeAddress(chi.URLParam(r, "address"))
	if err != nil {
		return "", vault.ErrInvalidAddress
	}
	return addr, nil
}

func battleIDParam(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: battle id %q", errBadRequest, chi.URLParam(r, "id"))
	}
	return id, nil
}

// withCaller decodes the body into req and resolves the caller.
func withCaller(r *http.Request, req interface{}) (string, error) {
	user, err := caller(r)
	if err != nil {
		return "", err
	}
	if req != nil {
		if err := decode(r, req); err != nil {
			return "", err
		}
	}
	return user, nil
}

func (s *Server) OnDeposit(w http.ResponseWriter, r *http.Request) {
	var req amountReq
	user, err := withCaller(r, &req)
	if err == nil {
		err = s.vault.Deposit(r.Context(), user, req.Amount)
	}
	s.reply(w, r, okResp, err)
}

func (s *Server) OnWithdraw(w http.ResponseWriter, r *http.Request) {
	var req amountReq
	user, err := withCaller(r, &req)
	if err == nil {
		err = s.vault.Withdraw(r.Context(), user, req.Amount)
	}
	s.reply(w, r, okResp, err)
}

func (s *Server) OnWithdrawAll(w http.ResponseWriter, r *http.Request) {
	user, err := withCaller(r, nil)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	principal, yield, err := s.vault.WithdrawAll(r.Context(), user)
	s.reply(w, r, &withdrawAllResp{Principal: principal, Yield: yield}, err)
}

func (s *Server) OnClaimYield(w http.ResponseWriter, r *http.Request) {
	user, err := withCaller(r, nil)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	claimed, err := s.vault.ClaimYield(r.Context(), user)
	s.reply(w, r, &amountReq{Amount: claimed}, err)
}

func (s *Server) OnFundRewards(w http.ResponseWriter, r *http.Request) {
	var req amountReq
	user, err := withCaller(r, &req)
	if err == nil {
		err = s.vault.FundRewards(r.Context(), user, req.Amount)
	}
	s.reply(w, r, okResp, err)
}

func (s *Server) OnQueryPosition(w http.ResponseWriter, r *http.Request) {
	user, err := addressParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	view, err := s.vault.GetUserPosition(r.Context(), user)
	s.reply(w, r, view, err)
}

func (s *Server) OnQueryStats(w http.ResponseWriter, r *http.Request) {
	view, err := s.vault.GetVaultStats(r.Context())
	s.reply(w, r, view, err)
}

func (s *Server) OnListBattles(w http.ResponseWriter, r *http.Request) {
	views, err := s.vault.ListBattles(r.Context())
	s.reply(w, r, views, err)
}

func (s *Server) OnCreateBattle(w http.ResponseWriter, r *http.Request) {
	var req createBattleReq
	user, err := withCaller(r, &req)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	id, err := s.vault.CreateBattle(r.Context(), user, vault.BattleParams{
		Name:            req.Name,
		EntryFee:        req.EntryFee,
		MaxParticipants: req.MaxParticipants,
		Duration:        req.Duration,
	})
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (s *Server) OnQueryBattle(w http.ResponseWriter, r *http.Request) {
	id, err := battleIDParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	view, err := s.vault.GetBattleDetails(r.Context(), id)
	s.reply(w, r, view, err)
}

func (s *Server) OnQueryWinners(w http.ResponseWriter, r *http.Request) {
	id, err := battleIDParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	winners, err := s.vault.GetBattleWinners(r.Context(), id)
	s.reply(w, r, winners, err)
}

func (s *Server) OnQueryParticipants(w http.ResponseWriter, r *http.Request) {
	id, err := battleIDParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	participants, err := s.vault.GetBattleParticipants(r.Context(), id)
	s.reply(w, r, participants, err)
}

func (s *Server) OnJoinBattle(w http.ResponseWriter, r *http.Request) {
	id, err := battleIDParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	var req amountReq
	user, err := withCaller(r, &req)
	if err == nil {
		err = s.vault.JoinBattle(r.Context(), user, id, req.Amount)
	}
	s.reply(w, r, okResp, err)
}

func (s *Server) OnSeedBattle(w http.ResponseWriter, r *http.Request) {
	id, err := battleIDParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	var req amountReq
	user, err := withCaller(r, &req)
	if err == nil {
		err = s.vault.SeedBattle(r.Context(), user, id, req.Amount)
	}
	s.reply(w, r, okResp, err)
}

func (s *Server) OnCloseBattle(w http.ResponseWriter, r *http.Request) {
	id, err := battleIDParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	user, err := withCaller(r, nil)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	winners, err := s.vault.CloseBattle(r.Context(), user, id)
	s.reply(w, r, winners, err)
}

func (s *Server) OnQueryTop(w http.ResponseWriter, r *http.Request) {
	count := 10
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.jsonError(w, r, fmt.Errorf("%w: count %q", errBadRequest, v))
			return
		}
		count = n
	}
	top, err := s.board.GetTopUsers(r.Context(), count)
	s.reply(w, r, top, err)
}

func (s *Server) OnQueryRank(w http.ResponseWriter, r *http.Request) {
	user, err := addressParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	rank, err := s.board.GetUserRank(r.Context(), user)
	s.reply(w, r, &rankResp{User: user, Rank: rank}, err)
}

func (s *Server) OnQueryBoardStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.board.GetTotalStats(r.Context())
	s.reply(w, r, st, err)
}

func (s *Server) OnRegister(w http.ResponseWriter, r *http.Request) {
	var req usernameReq
	user, err := withCaller(r, &req)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	p, err := s.profiles.RegisterUser(r.Context(), user, req.Username)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) OnUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req usernameReq
	user, err := withCaller(r, &req)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	p, err := s.profiles.UpdateProfile(r.Context(), user, req.Username)
	s.reply(w, r, p, err)
}

func (s *Server) OnQueryUsername(w http.ResponseWriter, r *http.Request) {
	ok, err := s.profiles.IsUsernameAvailable(r.Context(), chi.URLParam(r, "username"))
	s.reply(w, r, map[string]bool{"available": ok}, err)
}

func (s *Server) OnQueryProfile(w http.ResponseWriter, r *http.Request) {
	user, err := addressParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	p, err := s.profiles.GetUserData(r.Context(), user)
	s.reply(w, r, p, err)
}

// OnMint is the admin faucet.
func (s *Server) OnMint(w http.ResponseWriter, r *http.Request) {
	var req mintReq
	user, err := withCaller(r, &req)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	if user != s.vault.Admin() {
		s.jsonError(w, r, vault.ErrUnauthorized)
		return
	}
	to, err := chain.NormalizeAddress(req.To)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.reply(w, r, okResp, s.ledger.Mint(r.Context(), to, req.Amount))
}

func (s *Server) OnApprove(w http.ResponseWriter, r *http.Request) {
	var req approveReq
	user, err := withCaller(r, &req)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	spender, err := chain.NormalizeAddress(req.Spender)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	s.reply(w, r, okResp, s.ledger.Approve(r.Context(), user, spender, req.Amount))
}

func (s *Server) OnQueryBalance(w http.ResponseWriter, r *http.Request) {
	owner, err := addressParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	balance, err := s.ledger.BalanceOf(r.Context(), owner)
	s.reply(w, r, &balanceResp{Owner: owner, Balance: balance, Symbol: ledger.Symbol}, err)
}

func (s *Server) OnQueryTransfers(w http.ResponseWriter, r *http.Request) {
	owner, err := addressParam(r)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			s.jsonError(w, r, fmt.Errorf("%w: limit %q", errBadRequest, v))
			return
		}
	}
	transfers, err := s.ledger.Transfers(r.Context(), owner, limit)
	s.reply(w, r, transfers, err)
}

// reply writes resp with 200, or the error.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, resp interface{}, err error) {
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
