package main

import (
	"context"
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	corechess "github.com/park285/chess-engine-http/internal/chess"
	"github.com/park285/chess-engine-http/internal/chess/rules"
	"github.com/park285/chess-engine-http/internal/chessbuilder"
	appcfg "github.com/park285/chess-engine-http/internal/config"
	"github.com/park285/chess-engine-http/internal/obslog"
)

type checkFlags struct {
	stockfish string
	moveTime  time.Duration
	trace     bool
}

func rootCommand() *cobra.Command {
	flags := &checkFlags{}
	root := &cobra.Command{
		Use:   "enginecheck",
		Short: "Checks that the configured UCI engine answers searches",
		Long: heredoc.Doc(`
			enginecheck starts the engine exactly as chess-server would, using the
			same environment variables, and runs a few searches against it.
			Flags override STOCKFISH_PATH and ENGINE_MOVE_TIME_MS.
		`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&flags.stockfish, "stockfish", "", "engine binary (default: STOCKFISH_PATH or discovery)")
	root.PersistentFlags().DurationVar(&flags.moveTime, "movetime", 0, "thinking time per move (default: ENGINE_MOVE_TIME_MS)")
	root.PersistentFlags().BoolVarP(&flags.trace, "trace", "t", false, "log UCI traffic")

	root.AddCommand(probeCommand(flags))
	root.AddCommand(selfPlayCommand(flags))
	return root
}

func probeCommand(flags *checkFlags) *cobra.Command {
	var fen string
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Asks the engine for one move",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pos := rules.NewPosition()
			if fen != "" {
				var err error
				if pos, err = rules.FromFEN(fen); err != nil {
					return err
				}
			}
			engine, budget, err := startEngine(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = engine.Close() }()

			move, elapsed, err := think(cmd.Context(), engine, pos, budget)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bestmove %s (%s, legal=%t)\n", move, elapsed.Round(time.Millisecond), pos.IsLegal(move))
			return nil
		},
	}
	cmd.Flags().StringVar(&fen, "fen", "", "position to search (default: initial position)")
	return cmd
}

func selfPlayCommand(flags *checkFlags) *cobra.Command {
	var plies int
	cmd := &cobra.Command{
		Use:   "selfplay",
		Short: "Lets the engine play both sides and validates every move",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, budget, err := startEngine(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = engine.Close() }()
			if err := engine.NewGame(cmd.Context()); err != nil {
				return err
			}

			pos := rules.NewPosition()
			for pos.Ply() < plies && !pos.Status().Terminal() {
				move, elapsed, err := think(cmd.Context(), engine, pos, budget)
				if err != nil {
					return fmt.Errorf("ply %d: %w", pos.Ply()+1, err)
				}
				if err := pos.Apply(move); err != nil {
					return fmt.Errorf("ply %d: engine move %s rejected: %w", pos.Ply()+1, move, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%3d. %-6s %s\n", pos.Ply(), move, elapsed.Round(time.Millisecond))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\nfen: %s\n", pos.Status(), pos.FEN())
			return nil
		},
	}
	cmd.Flags().IntVarP(&plies, "plies", "n", 10, "number of half-moves to play")
	return cmd
}

func startEngine(ctx context.Context, flags *checkFlags) (*corechess.Engine, time.Duration, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := appcfg.Load()
	if err != nil {
		return nil, 0, err
	}
	if flags.stockfish != "" {
		cfg.StockfishPath = flags.stockfish
	}
	budget := cfg.MoveTime()
	if flags.moveTime > 0 {
		budget = flags.moveTime
	}

	level := "warn"
	if flags.trace {
		level = "debug"
	}
	logger, err := obslog.New(obslog.Options{Level: level, Format: "console", Console: true})
	if err != nil {
		return nil, 0, err
	}

	binary, err := cfg.ResolveStockfish()
	if err != nil {
		return nil, 0, err
	}
	engine, err := corechess.NewEngine(ctx, chessbuilder.EngineConfig(cfg, binary), logger.Named("engine"))
	if err != nil {
		return nil, 0, err
	}
	logger.Info("engine started", zap.String("binary", binary))
	return engine, budget, nil
}

func think(ctx context.Context, engine *corechess.Engine, pos *rules.Position, budget time.Duration) (string, time.Duration, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " thinking"
	s.Start()
	defer s.Stop()

	sctx, cancel := context.WithTimeout(ctx, budget+10*time.Second)
	defer cancel()
	start := time.Now()
	move, err := engine.BestMove(sctx, pos.FEN(), budget)
	return move, time.Since(start), err
}
