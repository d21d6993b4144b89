package main

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/chatdb-viewer/pkg/chatdb"
	"github.com/go-go-golems/chatdb-viewer/pkg/config"
	"github.com/go-go-golems/chatdb-viewer/pkg/loadslot"
	"github.com/go-go-golems/chatdb-viewer/pkg/logging"
	"github.com/go-go-golems/chatdb-viewer/pkg/ui"
	"github.com/go-go-golems/chatdb-viewer/pkg/viewer"
)

var version = "dev"

var errNotATerminal = errors.New("stdout is not a terminal")

func newRootCmd() *cobra.Command {
	var settings *config.Settings

	cmd := &cobra.Command{
		Use:   "chatdb-viewer <chat.db>",
		Short: "Browse an archived Messages chat.db in the terminal",
		Long: `A read-only terminal viewer for archived Messages databases.

Pass the path to a copy of chat.db. Do not point it at the live file in
~/Library/Messages: the Messages app may write to it while it is read.`,
		Version:      version,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(viper.New(), cmd.Flags())
			if err != nil {
				return err
			}
			settings = s
			// stderr until the UI takes over the terminal
			_, err = logging.Init(logging.Settings{
				Level:      s.LogLevel,
				Format:     s.LogFormat,
				WithCaller: s.WithCaller,
			})
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := homedir.Expand(args[0])
			if err != nil {
				return errors.Wrap(err, "expand database path")
			}
			return run(cmd.Context(), settings, path, cmd.OutOrStdout())
		},
	}
	config.AddFlags(cmd.Flags())
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func run(ctx context.Context, s *config.Settings, path string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := chatdb.OpenSQLiteStore(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if !isTerminal(out) {
		return errNotATerminal
	}

	closer, err := logging.Init(logging.Settings{
		Level:      s.LogLevel,
		Format:     s.LogFormat,
		WithCaller: s.WithCaller,
		File:       s.LogFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	loader := loadslot.NewLoader(ctx, loadslot.WithWorkers(s.Workers))
	defer func() { _ = loader.Close() }()

	state := viewer.New(store, loader, viewer.WithDropStaleLoads(s.DropStaleLoads))

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(out)}
	if s.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(ui.New(state, s), opts...)
	loader.SetNotify(func() { p.Send(ui.SettledMsg{}) })

	log.Info().Str("path", path).Msg("starting viewer")
	state.InitialLoad()
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "run viewer")
	}
	log.Info().Msg("viewer closed")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
