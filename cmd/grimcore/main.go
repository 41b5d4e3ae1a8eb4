// Command grimcore is a small harness around the rules engine: it builds a
// character from flags, runs the preparation pass, and rolls tests against
// the compiled-in rule tables. State lives in memory for the duration of one
// invocation; embedding applications bring their own store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oldworld-vtt/grimcore/internal/config"
	"github.com/oldworld-vtt/grimcore/internal/game/character"
	"github.com/oldworld-vtt/grimcore/internal/game/condition"
	"github.com/oldworld-vtt/grimcore/internal/game/dice"
	"github.com/oldworld-vtt/grimcore/internal/game/engine"
	"github.com/oldworld-vtt/grimcore/internal/game/ruleset"
	"github.com/oldworld-vtt/grimcore/internal/host"
	"github.com/oldworld-vtt/grimcore/internal/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
	engine *engine.Engine
	store  *host.MemStore
}

type rootFlags struct {
	configPath string
	rulesPath  string

	name string
	ws, bs, s, t, i, ag, dex, intelligence, wp, fel int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "grimcore",
		Short:         "Percentile rules engine harness",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flags.rulesPath, "rules", "", "path to a YAML rule-table file")

	root.PersistentFlags().StringVar(&flags.name, "name", "Adventurer", "character name")
	root.PersistentFlags().IntVar(&flags.ws, "ws", 30, "weapon skill")
	root.PersistentFlags().IntVar(&flags.bs, "bs", 30, "ballistic skill")
	root.PersistentFlags().IntVar(&flags.s, "s", 30, "strength")
	root.PersistentFlags().IntVar(&flags.t, "t", 30, "toughness")
	root.PersistentFlags().IntVar(&flags.i, "i", 30, "initiative")
	root.PersistentFlags().IntVar(&flags.ag, "ag", 30, "agility")
	root.PersistentFlags().IntVar(&flags.dex, "dex", 30, "dexterity")
	root.PersistentFlags().IntVar(&flags.intelligence, "int", 30, "intelligence")
	root.PersistentFlags().IntVar(&flags.wp, "wp", 30, "willpower")
	root.PersistentFlags().IntVar(&flags.fel, "fel", 30, "fellowship")

	root.AddCommand(newPrepareCmd(flags))
	root.AddCommand(newRollCmd(flags))
	return root
}

func newApp(flags *rootFlags) (*app, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	rules := ruleset.Default()
	if flags.rulesPath != "" {
		rules, err = ruleset.Load(flags.rulesPath)
		if err != nil {
			return nil, err
		}
	}

	store := host.NewMemStore()
	eng := engine.New(cfg, rules, condition.Defaults(), engine.Deps{
		Store:    store,
		Dialog:   host.NopDialog{},
		Notifier: host.NopNotifier{},
		Audio:    host.NopAudio{},
	}, dice.NewLoggedRoller(dice.NewCryptoSource(), logger), logger)

	return &app{cfg: cfg, logger: logger, engine: eng, store: store}, nil
}

func (a *app) createCharacter(cmd *cobra.Command, flags *rootFlags) (*character.Character, error) {
	c, err := a.engine.CreateCharacter(cmd.Context(), flags.name)
	if err != nil {
		return nil, err
	}
	for abbrev, value := range map[string]int{
		"ws": flags.ws, "bs": flags.bs, "s": flags.s, "t": flags.t,
		"i": flags.i, "ag": flags.ag, "dex": flags.dex,
		"int": flags.intelligence, "wp": flags.wp, "fel": flags.fel,
	} {
		c.Characteristics[abbrev].Initial = value
	}
	return c, nil
}

func newPrepareCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Run the preparation pass and print the derived sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck

			c, err := a.createCharacter(cmd, flags)
			if err != nil {
				return err
			}
			prep, err := a.engine.PrepareCharacter(cmd.Context(), c.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", c.Name, prep.Size)
			fmt.Fprintf(out, "  wounds      %d/%d\n", c.Wounds.Value, c.Wounds.Max)
			fmt.Fprintf(out, "  movement    walk %d, run %d\n", prep.Walk, prep.Run)
			fmt.Fprintf(out, "  advantage   %d (max %d)\n", prep.Advantage, prep.AdvantageMax)
			fmt.Fprintf(out, "  corruption  %d (threshold %d)\n", c.Corruption, prep.CorruptionMax)
			fmt.Fprintf(out, "  encumbrance %d carried, limit %d\n", prep.Loadout.Encumbrance, prep.EncumbranceLimit)
			return nil
		},
	}
}

func newRollCmd(flags *rootFlags) *cobra.Command {
	var (
		characteristic string
		skill          string
		modify         int
	)
	cmd := &cobra.Command{
		Use:   "roll",
		Short: "Build, confirm, and resolve a test",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck

			c, err := a.createCharacter(cmd, flags)
			if err != nil {
				return err
			}

			req := engine.TestRequest{ActorID: c.ID}
			switch {
			case skill != "":
				poss := c.SkillByName(skill)
				if poss == nil {
					return fmt.Errorf("unknown skill %q", skill)
				}
				req.Kind = engine.TestSkill
				req.Ref = poss.ID
			default:
				req.Kind = engine.TestCharacteristic
				req.Ref = characteristic
			}
			req.Context.Modify = modify

			spec, err := a.engine.BuildTest(cmd.Context(), req)
			if err != nil {
				return err
			}
			res, err := a.engine.ResolveTest(cmd.Context(), spec)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s test: rolled %d against %d\n", spec.Name, res.Roll, res.Target)
			fmt.Fprintf(out, "  %s (SL %+d)\n", res.Outcome, res.SL)
			if res.Critical {
				fmt.Fprintln(out, "  critical!")
			}
			if res.Fumble {
				fmt.Fprintln(out, "  fumble!")
			}
			for _, reason := range spec.Audit() {
				fmt.Fprintf(out, "  modifier: %s\n", reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&characteristic, "characteristic", "ws", "characteristic abbreviation to test")
	cmd.Flags().StringVar(&skill, "skill", "", "skill name to test instead of a characteristic")
	cmd.Flags().IntVar(&modify, "modify", 0, "situational modifier")
	return cmd
}
