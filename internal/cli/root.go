package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"seedorders/internal/infrastructure/logger"
	"seedorders/internal/warehouse"
)

type app struct {
	v   *viper.Viper
	out io.Writer
	in  *bufio.Reader
}

// NewRootCommand builds the seedctl command tree. Persistent flags can also
// be set through SEEDCTL_* environment variables.
func NewRootCommand(out io.Writer, in io.Reader) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SEEDCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	a := &app{v: v, out: out, in: bufio.NewReader(in)}

	root := &cobra.Command{
		Use:   "seedctl",
		Short: "Seed order intake and warehouse tracking client",
		Long: `seedctl talks to a seedorders server: it creates and manages seed
orders, watches the live order feed the way the warehouse dashboard does,
and triggers the stale order reminder.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String("url", "http://localhost:8080", "server base URL")
	flags.String("api-key", "", "anon or service key sent in the apikey header")
	flags.String("token", "", "user access token")
	flags.String("log-level", "warn", "client log level")
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newOrdersCommand(a),
		newWatchCommand(a),
		newTokensCommand(a),
		newRemindCommand(a),
		newAuthCommand(a),
	)

	return root
}

func (a *app) client() *warehouse.APIClient {
	return warehouse.NewAPIClient(a.v.GetString("url"), a.v.GetString("api-key"), a.v.GetString("token"), nil)
}

func (a *app) logger() *zap.Logger {
	l, err := logger.New(a.v.GetString("log-level"), "development")
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// controller returns a dashboard controller acting as the user of the
// configured access token.
func (a *app) controller(flash *warehouse.FlashAlert) (*warehouse.Controller, error) {
	viewer := ""
	if token := a.v.GetString("token"); token != "" {
		sub, err := subjectOf(token)
		if err != nil {
			return nil, err
		}
		viewer = sub
	}

	client := a.client()
	return warehouse.NewController(client, client, client, flash, viewer, a.logger()), nil
}

// confirmer prompts on the command input unless assumeYes is set.
func (a *app) confirmer(assumeYes bool) warehouse.Confirmer {
	return warehouse.ConfirmFunc(func(title, message string) bool {
		if assumeYes {
			return true
		}
		fmt.Fprintf(a.out, "%s: %s [y/N] ", title, message)
		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	})
}
