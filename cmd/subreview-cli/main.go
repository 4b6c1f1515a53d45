package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fundops/subreview/internal/corpus"
	"github.com/fundops/subreview/pkg/types"
)

const defaultAddr = "http://localhost:8080"

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "review":
		return handleReview(args[2:], stdout, stderr)
	case "feedback":
		return handleFeedback(args[2:], stdout, stderr)
	case "corpus":
		return handleCorpus(args[2:], stdout, stderr)
	case "seed":
		return handleSeed(args[2:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func handleReview(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("SUBREVIEW_ADDR", defaultAddr), "subreview API address")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	token := fs.String("token", os.Getenv("SUBREVIEW_TOKEN"), "bearer token")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "review requires <questionnaire.json>")
		fs.Usage()
		return 2
	}

	// #nosec G304 -- path is operator-provided questionnaire path.
	body, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	respBody, status, err := httpPost(http.DefaultClient, *addr+"/v1/reviews", *token, body)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "review failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	if *jsonOut {
		_, _ = stdout.Write(respBody)
		return 0
	}

	var result types.ReviewResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}

	fmt.Fprintf(stdout, "decision=%s review_id=%s\n", result.Decision, result.ReviewID)
	for _, field := range result.MissingFields {
		fmt.Fprintf(stdout, "missing: %s\n", field)
	}
	for _, finding := range result.EscalationReasons {
		fmt.Fprintf(stdout, "escalation: [%s] %s\n", finding.Severity, finding.Reason)
	}
	return 0
}

func handleFeedback(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("feedback", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("SUBREVIEW_ADDR", defaultAddr), "subreview API address")
	token := fs.String("token", os.Getenv("SUBREVIEW_TOKEN"), "bearer token")
	wrong := fs.String("wrong", "", "decision the reviewer is correcting")
	correct := fs.String("correct", "", "decision the reviewer wanted")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "feedback requires <text>")
		fs.Usage()
		return 2
	}

	payload, err := json.Marshal(map[string]string{
		"text":             fs.Arg(0),
		"wrong_decision":   *wrong,
		"correct_decision": *correct,
	})
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	respBody, status, err := httpPost(http.DefaultClient, *addr+"/v1/feedback", *token, payload)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "feedback failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	var resp struct {
		Term  string `json:"term"`
		Kind  string `json:"kind"`
		Added bool   `json:"added"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}

	fmt.Fprintf(stdout, "added=%t term=%s kind=%s\n", resp.Added, resp.Term, resp.Kind)
	return 0
}

func handleCorpus(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("corpus", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("SUBREVIEW_ADDR", defaultAddr), "subreview API address")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	token := fs.String("token", os.Getenv("SUBREVIEW_TOKEN"), "bearer token")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	respBody, status, err := httpGet(http.DefaultClient, *addr+"/v1/corpus", *token)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "corpus failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	if *jsonOut {
		_, _ = stdout.Write(respBody)
		return 0
	}

	var resp struct {
		Terms []types.TermEntry `json:"terms"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}

	for _, term := range resp.Terms {
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", term.Kind, term.Source, term.Term)
	}
	return 0
}

func handleSeed(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "lint":
		fs := flag.NewFlagSet("seed lint", flag.ContinueOnError)
		fs.SetOutput(stderr)
		if err := fs.Parse(args[1:]); err != nil {
			fs.Usage()
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "seed lint requires <seed_path>")
			fs.Usage()
			return 2
		}
		seed, err := corpus.LoadSeed(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		fmt.Fprintf(stdout, "ok keywords=%d patterns=%d\n", len(seed.Keywords), len(seed.Patterns))
		return 0
	default:
		usage(stderr)
		return 2
	}
}

func httpGet(client *http.Client, url string, token string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return doRequest(client, req)
}

func httpPost(client *http.Client, url string, token string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return doRequest(client, req)
}

func doRequest(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Subreview CLI

Usage:
  subreview review [--addr URL] [--json] [--token TOKEN] <questionnaire.json>
  subreview feedback [--wrong DECISION] [--correct DECISION] [--addr URL] [--token TOKEN] <text>
  subreview corpus [--addr URL] [--json] [--token TOKEN]
  subreview seed lint <seed_path>
`)
}
