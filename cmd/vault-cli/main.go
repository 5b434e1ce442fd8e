package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/mcdexio/yield-battle-vault/app"
	"github.com/mcdexio/yield-battle-vault/common/config"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	database "github.com/mcdexio/yield-battle-vault/database/db"
	"github.com/mcdexio/yield-battle-vault/leaderboard"
	vhttp "github.com/mcdexio/yield-battle-vault/utils/http"
	"github.com/mcdexio/yield-battle-vault/validator"
	"github.com/mcdexio/yield-battle-vault/vault"
	"github.com/shopspring/decimal"
	"github.com/ttacon/chalk"
)

type statsCmd struct{}

type battleCreateCmd struct {
	Name            string          `arg:"--name,required"`
	EntryFee        decimal.Decimal `arg:"--fee,required" help:"entry fee in base units"`
	MaxParticipants uint32          `arg:"--max" default:"10"`
	Duration        int64           `arg:"--duration" default:"604800" help:"seconds"`
}

type battleIDCmd struct {
	ID uint64 `arg:"positional,required"`
}

type battleCmd struct {
	Create *battleCreateCmd `arg:"subcommand:create"`
	Close  *battleIDCmd     `arg:"subcommand:close"`
	Show   *battleIDCmd     `arg:"subcommand:show"`
}

type topCmd struct {
	Count int `arg:"--count" default:"10"`
}

type auditCmd struct{}

type args struct {
	EnvFile string     `arg:"--env-file,env:ENV_FILE" default:".env"`
	API     string     `arg:"--api,env:VAULT_API_URL" help:"drive a running server instead of the database"`
	Stats   *statsCmd  `arg:"subcommand:stats" help:"print vault counters"`
	Battle  *battleCmd `arg:"subcommand:battle" help:"create, close or show a battle"`
	Top     *topCmd    `arg:"subcommand:top" help:"print the leaderboard head"`
	Audit   *auditCmd  `arg:"subcommand:audit" help:"reconcile vault books with the ledger once"`
}

// backend is served by the api client and by a directly wired app.
type backend interface {
	Stats(ctx context.Context) (*vault.StatsView, error)
	CreateBattle(ctx context.Context, p vault.BattleParams) (uint64, error)
	CloseBattle(ctx context.Context, id uint64) ([]*vault.Winner, error)
	Battle(ctx context.Context, id uint64) (*vault.BattleView, error)
	Participants(ctx context.Context, id uint64) ([]*vault.Participant, error)
	Winners(ctx context.Context, id uint64) ([]*vault.Winner, error)
	Top(ctx context.Context, count int) ([]*leaderboard.Entry, error)
}

// direct acts as the vault admin on the database.
type direct struct {
	*app.App
}

func (d direct) Stats(ctx context.Context) (*vault.StatsView, error) {
	return d.Vault.GetVaultStats(ctx)
}

func (d direct) CreateBattle(ctx context.Context, p vault.BattleParams) (uint64, error) {
	return d.Vault.CreateBattle(ctx, d.Vault.Admin(), p)
}

func (d direct) CloseBattle(ctx context.Context, id uint64) ([]*vault.Winner, error) {
	return d.Vault.CloseBattle(ctx, d.Vault.Admin(), id)
}

func (d direct) Battle(ctx context.Context, id uint64) (*vault.BattleView, error) {
	return d.Vault.GetBattleDetails(ctx, id)
}

func (d direct) Participants(ctx context.Context, id uint64) ([]*vault.Participant, error) {
	return d.Vault.GetBattleParticipants(ctx, id)
}

func (d direct) Winners(ctx context.Context, id uint64) ([]*vault.Winner, error) {
	return d.Vault.GetBattleWinners(ctx, id)
}

func (d direct) Top(ctx context.Context, count int) ([]*leaderboard.Entry, error) {
	return d.Board.GetTopUsers(ctx, count)
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}
	if err := config.LoadDotEnv(a.EnvFile); err != nil {
		p.Fail(err.Error())
	}

	name := "vault-cli"
	logging.Initialize(name)
	defer logging.Finalize()
	logger := logging.NewLoggerTag(name)

	var b backend
	var svc *app.App
	if a.API != "" {
		if a.Audit != nil {
			p.Fail("audit reads the database, drop --api")
		}
		b = vhttp.NewHttpClient(nil, logger, a.API, config.GetString("VAULT_ADMIN"))
	} else {
		usePostgres := true
		var err error
		svc, err = app.New(logger, app.Options{Config: vault.ConfigFromEnv(), Postgres: &usePostgres})
		if err != nil {
			logger.Error("init fail:%s", err)
			os.Exit(-3)
		}
		defer database.Finalize()
		b = direct{svc}
	}

	if err := run(context.Background(), b, svc, &a); err != nil {
		fmt.Fprintln(os.Stderr, chalk.Red.Color(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, b backend, svc *app.App, a *args) error {
	switch {
	case a.Stats != nil:
		st, err := b.Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(st)

	case a.Battle != nil && a.Battle.Create != nil:
		c := a.Battle.Create
		id, err := b.CreateBattle(ctx, vault.BattleParams{
			Name:            c.Name,
			EntryFee:        c.EntryFee,
			MaxParticipants: c.MaxParticipants,
			Duration:        c.Duration,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created battle %d\n", id)
		return nil

	case a.Battle != nil && a.Battle.Close != nil:
		winners, err := b.CloseBattle(ctx, a.Battle.Close.ID)
		if err != nil {
			return err
		}
		return printJSON(winners)

	case a.Battle != nil && a.Battle.Show != nil:
		id := a.Battle.Show.ID
		battle, err := b.Battle(ctx, id)
		if err != nil {
			return err
		}
		participants, err := b.Participants(ctx, id)
		if err != nil {
			return err
		}
		winners, err := b.Winners(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{
			"battle":       battle,
			"participants": participants,
			"winners":      winners,
		})

	case a.Top != nil:
		top, err := b.Top(ctx, a.Top.Count)
		if err != nil {
			return err
		}
		return printJSON(top)

	case a.Audit != nil:
		v := validator.NewValidator(&validator.Config{}, logging.NewLoggerTag("validator"), svc.Vault, svc.Ledger, nil)
		report, err := v.Check(ctx)
		if err != nil {
			return err
		}
		if !report.OK() {
			return fmt.Errorf("books do not reconcile: %s", report)
		}
		fmt.Println(chalk.Green.Color("OK"), report)
		return nil
	}
	return fmt.Errorf("missing subcommand")
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
