//go:build ignore

// Command generate-archive emits synthetic chat archives for benchmarks and
// manual testing.
//
// Usage:
//
//	go run scripts/generate-archive.go -conversations 500 -schema openai -out testdata/bench-openai.json
//	go run scripts/generate-archive.go -conversations 200 -schema claude -out testdata/bench-claude.json
//
// The same seed always produces the same archive.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var (
	conversations = flag.Int("conversations", 100, "Number of conversations to generate")
	meanMessages  = flag.Int("messages", 8, "Mean messages per conversation")
	schema        = flag.String("schema", "openai", "Archive schema: openai or claude")
	out           = flag.String("out", "testdata/bench.json", "Output file")
	seed          = flag.Int64("seed", 42, "Random seed")
)

var topics = []string{
	"Go Concurrency", "Kafka Consumers", "Shell Tips", "SQL Window Functions",
	"Rust Lifetimes", "Docker Networking", "Regex Backreferences", "TLS Handshakes",
	"Git Rebase", "Unicode Normalization", "B-Tree Internals", "HTTP Caching",
	"Terraform State", "Vim Motions", "Protobuf Evolution", "DNS Resolution",
}

var questions = []string{
	"How do goroutines differ from OS threads?",
	"What causes a consumer group rebalance?",
	"Best way to find large files on disk?",
	"Why does my window function return duplicates?",
	"When does the borrow checker reject this?",
	"How do containers on the same bridge talk?",
	"Can I match nested parentheses with a regex?",
	"What happens during a session resumption?",
}

var answers = []string{
	"They are multiplexed onto a small pool of OS threads by the runtime scheduler.",
	"Partitions are reassigned by the group coordinator whenever membership changes.",
	"du with sort does it, but ncdu gives you an interactive view.",
	"The frame clause defaults to RANGE, which groups peer rows together.",
	"The reference outlives the owner, so the compiler rejects the borrow.",
	"The bridge acts as a virtual switch; containers resolve each other by name.",
	"Not with a regular language; you need a parser or recursive extensions.",
	"The client presents a ticket and both sides skip the key exchange.",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	var doc any
	switch *schema {
	case "openai":
		doc = generateOpenAI(rng)
	case "claude":
		doc = generateClaude(rng)
	default:
		fmt.Fprintf(os.Stderr, "unknown schema %q (want openai or claude)\n", *schema)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d conversations (%s schema) to %s\n", *conversations, *schema, *out)
}

// messageCount draws a conversation length around the configured mean, with
// a floor of one message.
func messageCount(rng *rand.Rand) int {
	n := *meanMessages + rng.Intn(*meanMessages+1) - *meanMessages/2
	if n < 1 {
		return 1
	}
	return n
}

func startTime(rng *rand.Rand, i int) time.Time {
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(i)*6*time.Hour + time.Duration(rng.Intn(3600))*time.Second)
}

func exchange(rng *rand.Rand, turn int) string {
	if turn%2 == 0 {
		return questions[rng.Intn(len(questions))]
	}
	return answers[rng.Intn(len(answers))]
}

func generateOpenAI(rng *rand.Rand) any {
	type node struct {
		ID       string         `json:"id"`
		Message  map[string]any `json:"message"`
		Parent   *string        `json:"parent"`
		Children []string       `json:"children"`
	}

	archive := make([]map[string]any, 0, *conversations)
	for i := 0; i < *conversations; i++ {
		convID := fmt.Sprintf("conv-%06d", i+1)
		start := startTime(rng, i)
		count := messageCount(rng)

		mapping := make(map[string]node, count+1)
		rootID := "root-" + convID
		children := []string{}
		prev := rootID
		for m := 0; m < count; m++ {
			nodeID := fmt.Sprintf("%s-node-%d", convID, m+1)
			role := "user"
			if m%2 == 1 {
				role = "assistant"
			}
			ts := start.Add(time.Duration(m) * time.Minute)
			parent := prev
			mapping[nodeID] = node{
				ID: nodeID,
				Message: map[string]any{
					"id":          fmt.Sprintf("%s-msg-%d", convID, m+1),
					"author":      map[string]string{"role": role},
					"create_time": float64(ts.Unix()),
					"content": map[string]any{
						"content_type": "text",
						"parts":        []string{exchange(rng, m)},
					},
				},
				Parent:   &parent,
				Children: []string{},
			}
			if prev == rootID {
				children = append(children, nodeID)
			} else {
				n := mapping[prev]
				n.Children = append(n.Children, nodeID)
				mapping[prev] = n
			}
			prev = nodeID
		}
		mapping[rootID] = node{ID: rootID, Message: nil, Parent: nil, Children: children}

		end := start.Add(time.Duration(count) * time.Minute)
		archive = append(archive, map[string]any{
			"id":          convID,
			"title":       topics[rng.Intn(len(topics))],
			"create_time": float64(start.Unix()),
			"update_time": float64(end.Unix()),
			"mapping":     mapping,
		})
	}
	return archive
}

func generateClaude(rng *rand.Rand) any {
	archive := make([]map[string]any, 0, *conversations)
	for i := 0; i < *conversations; i++ {
		convID := fmt.Sprintf("claude-conv-%06d", i+1)
		start := startTime(rng, i)
		count := messageCount(rng)

		messages := make([]map[string]any, 0, count)
		for m := 0; m < count; m++ {
			sender := "human"
			if m%2 == 1 {
				sender = "assistant"
			}
			messages = append(messages, map[string]any{
				"uuid":       fmt.Sprintf("%s-msg-%d", convID, m+1),
				"sender":     sender,
				"text":       exchange(rng, m),
				"created_at": start.Add(time.Duration(m) * time.Minute).Format(time.RFC3339),
			})
		}

		archive = append(archive, map[string]any{
			"uuid":          convID,
			"name":          topics[rng.Intn(len(topics))],
			"created_at":    start.Format(time.RFC3339),
			"updated_at":    start.Add(time.Duration(count) * time.Minute).Format(time.RFC3339),
			"chat_messages": messages,
		})
	}
	return archive
}
