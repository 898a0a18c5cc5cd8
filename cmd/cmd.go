// Package cmd provides CLI commands for Zolve.
//
// Commands:
//   - serve: HTTP API server hosting the advisor
//   - chat: Interactive terminal chat against a running server
//
// Signal handling and graceful shutdown are implemented
// for all commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// Execute is the main entry point for the Zolve CLI application.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "chat":
		return runChat()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Zolve - Your personal financial guide")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  zolve serve [addr] Start the advisor HTTP server (default: 127.0.0.1:8000)")
	fmt.Println("  zolve chat         Start interactive chat against a running server")
	fmt.Println("  zolve --version    Show version information")
	fmt.Println("  zolve --help       Show this help")
	fmt.Println()
	fmt.Println("Chat commands (in interactive mode):")
	fmt.Println("  /help              Show available commands")
	fmt.Println("  /new               Open a fresh chat")
	fmt.Println("  /clear             Clear the current chat display")
	fmt.Println("  /exit, /quit       Exit Zolve")
	fmt.Println()
	fmt.Println("Shortcuts:")
	fmt.Println("  Ctrl+N             New chat")
	fmt.Println("  Ctrl+O             Switch between open chats")
	fmt.Println("  Ctrl+D             Exit Zolve")
	fmt.Println("  Ctrl+C             Cancel current input")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required for serve: Gemini API key")
	fmt.Println("  ZOLVE_BASE_URL     Chat: server URL (default: http://127.0.0.1:8000)")
	fmt.Println("  DEBUG              Optional: Enable debug logging")
}
