package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"requify/internal/gateway/app"
	"requify/internal/llm"
	"requify/internal/pipeline"
	"requify/internal/question"
	"requify/internal/store"
	"requify/internal/validation"
)

// --- serve ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the intake gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New()
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			if err := a.Start(); err != nil {
				errCh <- err
			}
			close(errCh)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.Shutdown(ctx)
	},
}

// --- expand ---

var expandCmd = &cobra.Command{
	Use:   "expand [sentence...]",
	Short: "Expand one product sentence into a full project",
	Long: `Expand one product sentence into a full project.

Examples:
  requify expand "a marketplace for vintage synthesizers"
  requify expand --project p1 "an expense tracker for small teams"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		sentence := strings.TrimSpace(strings.Join(args, " "))
		if sentence == "" {
			return fmt.Errorf("sentence is required")
		}
		projectID, _ := cmd.Flags().GetString("project")
		if projectID == "" {
			projectID = "cli-" + time.Now().UTC().Format("20060102-150405")
		}

		dataDir := strings.TrimSpace(os.Getenv("DATA_DIR"))
		if dataDir == "" {
			dataDir = "data"
		}
		st := store.NewFromEnv(dataDir)
		defer st.Close()

		client := buildCLIClient()
		defer client.Close()

		orch := pipeline.NewOrchestrator(client, validation.RuleValidator{}, st,
			pipeline.WithProgress(func(step pipeline.Step, status pipeline.StepStatus, detail string) {
				if detail != "" {
					log.Printf("%s: %s (%s)", step, status, detail)
				} else {
					log.Printf("%s: %s", step, status)
				}
			}))

		res, err := orch.Run(cmd.Context(), projectID, sentence)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

// --- questions ---

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the intake question catalog by phase",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range question.Phases() {
			fmt.Printf("%s:\n", p)
			for _, q := range question.Catalog() {
				if q.Phase != p {
					continue
				}
				fmt.Printf("  %-22s %s\n", q.ID, q.Prompt)
			}
		}
		return nil
	},
}

func buildCLIClient() llm.Client {
	var base llm.Client
	if strings.TrimSpace(os.Getenv("GEMINI_API_KEY")) != "" {
		model := strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
		if model == "" {
			model = "gemini-2.0-flash"
		}
		gc, err := llm.NewGeminiClient(context.Background(), model)
		if err == nil {
			base = gc
		} else {
			log.Printf("gemini client init failed, using offline client: %v", err)
		}
	}
	if base == nil {
		base = llm.NewFakeClient()
	}
	return llm.Chain(base,
		llm.Retry(3, 500*time.Millisecond),
		llm.Timeout(30*time.Second),
	)
}

func init() {
	expandCmd.Flags().String("project", "", "project id to write the expansion under")
}
