// Package main provides the docqa CLI: ingest a document and answer
// questions about it, either interactively, one-shot, or as an MCP server.
package main

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/config"
	"github.com/bull/docqa/internal/embedding"
	mcpserver "github.com/bull/docqa/internal/mcp"
	"github.com/bull/docqa/internal/pipeline"
	"github.com/bull/docqa/internal/source"
	"github.com/bull/docqa/internal/splitter"
)

//go:embed sample.txt
var sampleDocument string

var (
	flagDoc      string
	flagHTTP     bool
	flagPort     string
	flagVerbose  bool
	flagShowRefs bool
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Question answering over a single document",
	Long: `docqa ingests one document (local file, http(s) URL, or
github://owner/repo/path), indexes it in memory, and answers questions
about it using retrieval-augmented generation.

Environment variables:
  OPENAI_API_KEY         OpenAI API key (required)
  GITHUB_TOKEN           GitHub token for github:// sources (optional)
  DOCQA_CHUNK_SIZE       Chunk size in characters (default: 1000)
  DOCQA_CHUNK_OVERLAP    Chunk overlap in characters (default: 200)
  DOCQA_TOP_K            Chunks retrieved per question (default: 7)
  DOCQA_CHAT_MODEL       Chat model (default: gpt-4o-mini-2024-07-18)
  DOCQA_EMBEDDING_MODEL  Embedding model (default: text-embedding-3-small)
  DOCQA_TEMPERATURE      Sampling temperature (default: 0.7)
  DOCQA_REQUEST_TIMEOUT  Per-request timeout (default: 30s)`,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ingest a document and answer a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ingest a document and answer questions interactively",
	RunE:  runChat,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server (stdio by default, HTTP with --http)",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDoc, "doc", "",
		"document to ingest (file path, URL, or github://owner/repo/path; a built-in sample is used if omitted)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")

	askCmd.Flags().BoolVar(&flagShowRefs, "sources", false,
		"print the chunks the answer was grounded in")
	chatCmd.Flags().BoolVar(&flagShowRefs, "sources", false,
		"print the chunks each answer was grounded in")

	serveCmd.Flags().BoolVar(&flagHTTP, "http", false,
		"serve MCP over streamable HTTP instead of stdio")
	serveCmd.Flags().StringVar(&flagPort, "port", "8080",
		"HTTP port for the health endpoint (and MCP when --http is set)")

	rootCmd.AddCommand(askCmd, chatCmd, serveCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newSession wires the full pipeline from configuration: one OpenAI client
// shared by the embedder and the answer generator, the splitter, and the
// session around them.
func newSession(cfg *config.Config, logger *slog.Logger) (*pipeline.Session, *source.Loader, error) {
	client, err := embedding.NewClient(cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("create openai client: %w", err)
	}

	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, 0, cfg.RequestTimeout)
	generator := answer.NewOpenAIGenerator(client.Client(), cfg.ChatModel, cfg.Temperature, cfg.RequestTimeout)
	synth := answer.NewSynthesizer(generator, logger)

	sp, err := splitter.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, nil, fmt.Errorf("create splitter: %w", err)
	}

	session, err := pipeline.NewSession(sp, embedder, synth, cfg.TopK, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	return session, source.NewLoader(logger), nil
}

// ingestDocument loads --doc, or falls back to the built-in sample.
func ingestDocument(ctx context.Context, session *pipeline.Session, loader *source.Loader) error {
	var doc *source.Document

	if flagDoc == "" {
		fmt.Println("No document given, using the built-in sample. Pass --doc to ingest your own.")
		doc = &source.Document{
			ID:   "builtin-sample",
			Name: "sample.txt",
			Text: sampleDocument,
		}
	} else {
		loaded, err := loader.Load(ctx, flagDoc)
		if err != nil {
			return err
		}
		doc = loaded
	}

	fmt.Printf("Ingesting %s...\n", doc.Name)
	if err := session.Ingest(ctx, doc); err != nil {
		return err
	}
	fmt.Printf("Document processed successfully (%d chunks). You can now ask questions about it.\n",
		session.ChunkCount())
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger()

	session, loader, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	if err := ingestDocument(ctx, session, loader); err != nil {
		return err
	}

	question := strings.Join(args, " ")
	ans, err := session.Ask(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ans.Text)
	printSources(ans)
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger()

	session, loader, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	if err := ingestDocument(ctx, session, loader); err != nil {
		return err
	}

	fmt.Println(`Type a question, or "exit" to quit.`)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		ans, err := session.Ask(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("answering failed", "error", err)
			fmt.Println(pipeline.MsgAnswerFailed)
			continue
		}
		fmt.Println(ans.Text)
		printSources(ans)
	}
	return scanner.Err()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger()

	session, loader, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	server := mcpserver.NewServer(&mcpserver.Config{
		Session: session,
		Loader:  loader,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(session))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	addr := "0.0.0.0:" + flagPort

	if flagHTTP {
		logger.Info("starting HTTP server", "addr", addr)
		return http.ListenAndServe(addr, mux)
	}

	// Stdio mode: serve MCP over stdin/stdout with the health endpoint in
	// the background.
	go func() {
		logger.Info("starting health server", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("starting MCP server (stdio mode)")
	return server.Run(ctx)
}

func printSources(ans *answer.Answer) {
	if !flagShowRefs || len(ans.Sources) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Sources:")
	for _, s := range ans.Sources {
		fmt.Printf("  chunk %d (score %.3f)\n", s.Ordinal, s.Score)
	}
}
