package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"founder-connect/internal/app"
	"founder-connect/internal/database/seeder"
	"founder-connect/internal/domain/user"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptQuit    = "quit"
	PromptHistory = "history"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send @commands to the chat router as one of the demo users",
	Long: "chat runs the command router in the terminal. By default it works on an in-memory store\n" +
		"filled with the demo profiles; --postgres uses the configured database (run seed first).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		usePostgres, _ := cmd.Flags().GetBool("postgres")
		return chat(contextOrBackground(cmd.Context()), usePostgres)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().Bool("postgres", false, "use the configured postgres database instead of process memory")
}

func chat(ctx context.Context, usePostgres bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	demo, err := seeder.DemoUsers(time.Now())
	if err != nil {
		return err
	}

	var c *app.Container
	if usePostgres {
		c, err = app.NewContainer(ctx, cfg, logger)
	} else {
		c, err = app.NewInMemoryContainer(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if c.Memory != nil {
		users := c.Memory.Users()
		for _, u := range demo {
			if err := users.Create(ctx, u); err != nil && !errors.Is(err, user.ErrEmailTaken) {
				return fmt.Errorf("load demo user %s: %w", u.Email, err)
			}
		}
	}

	me, err := selectUser(demo)
	if err != nil {
		return err
	}
	if _, err := c.Services.Profiles.GetByID(ctx, me.ID); err != nil {
		logger.Error("demo user is not in the database", zap.String("email", me.Email), zap.Error(err))
		return err
	}

	logger.Info("chatting", zap.String("as", me.Name), zap.String("hint", "type @help for examples, quit to leave"))

	input := promptui.Prompt{
		Label: me.Name,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("empty command")
			}
			return nil
		},
	}

	for {
		line, err := input.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case PromptQuit:
			return nil
		case PromptHistory:
			entries, err := c.Services.Chat.History(ctx, me.ID, 20)
			if err != nil {
				logger.Warn("loading history", zap.Error(err))
				continue
			}
			printJSON(entries)
			continue
		}

		if !strings.HasPrefix(line, "@") {
			line = "@" + line
		}
		printJSON(c.Services.Chat.Route(ctx, me.ID, line))
	}
}

func selectUser(users []user.User) (user.User, error) {
	items := make([]string, 0, len(users))
	for _, u := range users {
		items = append(items, fmt.Sprintf("%s (%s)", u.Name, u.Role))
	}

	sel := promptui.Select{
		Label: "Act as",
		Items: items,
	}
	idx, _, err := sel.Run()
	if err != nil {
		return user.User{}, err
	}
	return users[idx], nil
}

func printJSON(v any) {
	// do not bother error since every value printed here is plain data
	pretty, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(pretty))
}
