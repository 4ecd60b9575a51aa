package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"
)

var (
	stdin  io.Reader = os.Stdin
	prompt io.Writer = os.Stderr
)

// Source describes where a plan document comes from.
type Source struct {
	// Input is a file path, "-" for stdin, or "" for an interactive paste.
	Input string
	// DBConn is required when Input holds SQL rather than EXPLAIN output.
	DBConn  string
	Timeout time.Duration
}

// Resolve reads the input named by src and returns raw EXPLAIN JSON. SQL input
// is explained against src.DBConn.
func Resolve(ctx context.Context, src Source) ([]byte, error) {
	data, err := readInput(src.Input)
	if err != nil {
		return nil, err
	}

	switch detectType(data, src.Input) {
	case "json":
		return data, nil
	case "sql":
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(strings.ToUpper(trimmed), "EXPLAIN") {
			return nil, fmt.Errorf("input should not include EXPLAIN prefix - provide the raw query only")
		}
		if src.DBConn == "" {
			return nil, fmt.Errorf("SQL input requires a database connection")
		}
		return Execute(ctx, src.DBConn, trimmed, src.Timeout)
	case "text":
		return nil, fmt.Errorf(`text format not supported - use JSON format:

EXPLAIN (ANALYZE, VERBOSE, BUFFERS, FORMAT JSON) <your query>

Then provide the complete JSON output.`)
	default:
		return nil, fmt.Errorf("unable to detect input type: expected JSON plan, SQL query, or .json/.sql file")
	}
}

func readInput(input string) ([]byte, error) {
	switch input {
	case "":
		return readInteractive()
	case "-":
		return io.ReadAll(stdin)
	default:
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", input, err)
		}
		return data, nil
	}
}

func readInteractive() ([]byte, error) {
	fmt.Fprint(prompt, "Paste EXPLAIN (ANALYZE, VERBOSE, BUFFERS, FORMAT JSON) output or SQL query")
	if runtime.GOOS == "windows" {
		fmt.Fprint(prompt, " (Ctrl+Z, Enter to submit)\n")
	} else {
		fmt.Fprint(prompt, " (Ctrl+D to submit)\n")
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))

	if (strings.HasPrefix(trimmed, "[") ||
		strings.HasPrefix(trimmed, "{")) &&
		!json.Valid(data) {
		return nil, fmt.Errorf("input appears truncated; for large inputs use: plangraph analyze <file>")
	}

	return data, nil
}

func detectType(data []byte, filename string) string {
	switch {
	case strings.HasSuffix(filename, ".json"):
		return "json"
	case strings.HasSuffix(filename, ".sql"):
		return "sql"
	case strings.HasSuffix(filename, ".txt"):
		return "text"
	}

	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return "json"
	}

	if strings.Contains(trimmed, "(cost=") {
		return "text"
	}

	upper := strings.ToUpper(trimmed)
	for _, kw := range []string{"SELECT", "WITH", "INSERT", "UPDATE", "DELETE", "EXPLAIN"} {
		if strings.HasPrefix(upper, kw) {
			return "sql"
		}
	}

	return "unknown"
}
