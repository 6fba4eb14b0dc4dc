package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/questionbank/internal/auth"
	"github.com/pavelanni/questionbank/internal/bank"
	"github.com/pavelanni/questionbank/internal/exam"
	"github.com/pavelanni/questionbank/internal/export"
	"github.com/pavelanni/questionbank/internal/handler"
	appI18n "github.com/pavelanni/questionbank/internal/i18n"
	"github.com/pavelanni/questionbank/internal/llm"
	"github.com/pavelanni/questionbank/internal/llm/prompts"
	"github.com/pavelanni/questionbank/internal/model"
	"github.com/pavelanni/questionbank/internal/store"
)

const defaultLLMURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "questionbank",
		Short: "Question bank and exam assembly service",
	}

	serve := serveCmd()
	root.AddCommand(serve, userCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `questionbank --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "questionbank.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default language for messages and prompts (en, pt-BR)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /qb)")
	f.String("llm-url", defaultLLMURL, "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the LLM (or set GEMINI_API_KEY)")
	f.String("llm-model", "gemini-2.5-flash", "LLM model name")
	f.Duration("llm-timeout", 60*time.Second, "Deadline for each LLM call")
	f.Int("llm-attempts", 3, "LLM calls per generated question before giving up")
	f.Duration("llm-backoff", time.Second, "Backoff unit after a rate-limited LLM call")
	f.Bool("llm-check", false, "Verify the LLM endpoint at startup")
	f.Int("ai-concurrency", 4, "Maximum parallel LLM calls per exam")
	f.String("jwt-secret", "", "HMAC secret for access tokens (required)")
	f.Duration("token-ttl", 24*time.Hour, "Access token lifetime")
	f.String("admin-email", "admin@example.com", "E-mail of the professor account seeded into an empty database")
	f.String("admin-password", "", "Password of the seeded professor account")
	f.StringSliceP("questions", "q", nil, "Paths to questions JSON files imported at startup (repeatable)")
	f.String("chrome-path", "", "Chrome/Chromium binary used for PDF export (autodetected when empty)")
	addCommonFlags(cmd)
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		RunE:  runUserAdd,
	}
	f := add.Flags()
	f.String("name", "", "Display name (required)")
	f.String("email", "", "E-mail (required)")
	f.String("password", "", "Password (required)")
	f.String("role", string(model.UserRoleProfessor), "Role (PROFESSOR, STUDENT)")
	addCommonFlags(add)
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("password")

	token := &cobra.Command{
		Use:   "token",
		Short: "Print an access token for an account",
		RunE:  runUserToken,
	}
	f = token.Flags()
	f.String("email", "", "E-mail (required)")
	f.String("password", "", "Password (required)")
	f.String("jwt-secret", "", "HMAC secret for access tokens (required)")
	f.Duration("token-ttl", 24*time.Hour, "Access token lifetime")
	addCommonFlags(token)
	_ = token.MarkFlagRequired("email")
	_ = token.MarkFlagRequired("password")

	cmd.AddCommand(add, token)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render an exam as pdf, docx, html or json",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("exam-id", "", "Exam identifier (required)")
	f.StringP("format", "f", "pdf", "Output format (pdf, docx, html, json)")
	f.StringP("output", "o", "", "Output file path (- for stdout, default exam-<id>.<format>)")
	f.StringP("lang", "l", "en", "Document language (en, pt-BR)")
	f.String("chrome-path", "", "Chrome/Chromium binary used for PDF export")
	addCommonFlags(cmd)
	_ = cmd.MarkFlagRequired("exam-id")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("questionbank")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/questionbank")
	v.AddConfigPath("/etc/questionbank")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// llmKey returns the configured key, falling back to GEMINI_API_KEY.
func llmKey(v *viper.Viper) string {
	if key := v.GetString("llm-key"); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}

func language(v *viper.Viper) string {
	lang := strings.TrimSpace(v.GetString("lang"))
	if !prompts.IsValidLanguage(lang) {
		slog.Warn("unsupported language, using en", "lang", lang)
		return string(prompts.LangEnglish)
	}
	return lang
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Fail fast on missing secrets before touching the database.
	tokens, err := auth.NewIssuer(v.GetString("jwt-secret"), v.GetDuration("token-ttl"))
	if err != nil {
		return fmt.Errorf("configure tokens: %w (set --jwt-secret or QBANK_JWT_SECRET)", err)
	}
	llmClient, err := llm.New(v.GetString("llm-url"), llmKey(v), v.GetString("llm-model"))
	if err != nil {
		return fmt.Errorf("create LLM client: %w (set --llm-key or GEMINI_API_KEY)", err)
	}
	if v.GetBool("llm-check") {
		if err := llmClient.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", llmClient.Model())
	}

	lang := language(v)
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	if err := prompts.Load(); err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := seedAdmin(ctx, db, v.GetString("admin-email"), v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := loadQuestions(ctx, db, v.GetStringSlice("questions")); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	gen := llm.NewGenerator(llmClient, llm.GeneratorConfig{
		Attempts: v.GetInt("llm-attempts"),
		Backoff:  v.GetDuration("llm-backoff"),
		Timeout:  v.GetDuration("llm-timeout"),
		Lang:     prompts.Language(lang),
	})
	exams := exam.NewService(exam.FromStore(db), gen, exam.Options{Concurrency: v.GetInt("ai-concurrency")})
	exporter := export.New(&export.PDFRenderer{ExecPath: v.GetString("chrome-path")})
	h := handler.New(db, exams, exporter, tokens)

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware(basePath))
			h.Routes(sub)
		})
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"model", llmClient.Model(),
			"llm_url", v.GetString("llm-url"),
			"lang", lang,
			"ai_concurrency", v.GetInt("ai-concurrency"),
			"base_path", basePath,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
	}
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedAdmin creates the first professor account when the database has no users.
func seedAdmin(ctx context.Context, db *store.Store, email, password string) error {
	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or QBANK_ADMIN_PASSWORD env var")
	}

	u, err := bank.New(db).Register(ctx, bank.SignUp{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     model.UserRoleProfessor,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default professor account", "email", u.Email)
	return nil
}

// loadQuestions imports question files on behalf of the oldest professor.
func loadQuestions(ctx context.Context, db *store.Store, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	owner, err := db.FirstUserByRole(ctx, model.UserRoleProfessor)
	if err != nil {
		return err
	}
	if owner == nil {
		return fmt.Errorf("no professor account owns imported questions")
	}
	return bank.New(db).ImportFiles(ctx, owner.ID, paths)
}

func runUserAdd(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	role := model.UserRole(strings.ToUpper(v.GetString("role")))
	if role != model.UserRoleProfessor && role != model.UserRoleStudent {
		return fmt.Errorf("invalid role %q", role)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	u, err := bank.New(db).Register(cmd.Context(), bank.SignUp{
		Name:     v.GetString("name"),
		Email:    v.GetString("email"),
		Password: v.GetString("password"),
		Role:     role,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), u.ID)
	return nil
}

func runUserToken(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	tokens, err := auth.NewIssuer(v.GetString("jwt-secret"), v.GetDuration("token-ttl"))
	if err != nil {
		return fmt.Errorf("configure tokens: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	u, err := bank.New(db).Authenticate(cmd.Context(), v.GetString("email"), v.GetString("password"))
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	token, err := tokens.Issue(*u)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	format, err := export.ParseFormat(v.GetString("format"))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	lang := language(v)
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(lang))
	examID := v.GetString("exam-id")
	detail, err := db.GetExamDetail(ctx, examID)
	if err != nil {
		return fmt.Errorf("load exam: %w", err)
	}
	if detail == nil {
		return fmt.Errorf("exam %s not found", examID)
	}

	exporter := export.New(&export.PDFRenderer{ExecPath: v.GetString("chrome-path")})
	data, err := exporter.Export(ctx, format, detail)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}

	outPath := v.GetString("output")
	if outPath == "" {
		outPath = format.Filename(examID)
	}
	var w io.Writer
	if outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("exam exported", "exam_id", examID, "format", format, "path", outPath)
	return nil
}
