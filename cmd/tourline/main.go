// Command tourline runs a guided tour in the terminal: it loads a graph
// JSON file, selects the tour order, and plays the narration with typewriter
// pacing, driving the step signals itself. With OPENAI_API_KEY set the
// narration comes from the model; without it a canned narration is built
// from the graph so the playback loop can be tried offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/tourline/tourline/insight"
	"github.com/tourline/tourline/narration"
	"github.com/tourline/tourline/narrator"
	"github.com/tourline/tourline/narrator/openai"
	"github.com/tourline/tourline/playback"
	"github.com/tourline/tourline/tour"
)

func main() {
	stops := flag.Int("stops", 12, "number of tour stops to select")
	serverURL := flag.String("server", "", "base URL of a running tourlined to narrate through (optional)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tourline [-stops n] <graph.json>")
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "reading graph:", err)
		os.Exit(1)
	}
	graph, err := tour.ParseGraph(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parsing graph:", err)
		os.Exit(1)
	}

	order := tour.Select(graph, *stops)
	if len(order) == 0 {
		fmt.Fprintln(os.Stderr, "graph has no tourable nodes")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream := buildStream(ctx, *serverURL, graph, order)
	scheduler := playback.NewScheduler(playback.NewClock(), playback.DefaultPacing())
	coordinator := playback.NewCoordinator(scheduler)

	result := make(chan playback.State, 1)
	go func() { result <- coordinator.Run(ctx, stream) }()

	var nonce int64
	signalTour := func(sig playback.StepSignal) {
		nonce++
		sig.Nonce = nonce
		coordinator.Signal(sig)
	}
	next := 0
	advance := func() {
		sig := playback.StepSignal{Type: playback.SignalStep, Total: len(order)}
		if next < len(order) {
			sig.NodeID = order[next]
			sig.Index = next
			next++
		}
		signalTour(sig)
	}

	for {
		select {
		case event := <-coordinator.Events():
			switch event.Type {
			case playback.EventStarted:
				fmt.Printf("tour: %s\n\n", strings.Join(order, " -> "))
				advance()
			case playback.EventAppend:
				fmt.Print(event.Text)
			case playback.EventLineDone:
				advance()
			case playback.EventNotice:
				fmt.Fprintf(os.Stderr, "\nnotice: %s\n", event.Text)
			case playback.EventDrained:
				signalTour(playback.StepSignal{Type: playback.SignalDone})
			case playback.EventFailed:
				fmt.Fprintln(os.Stderr, "\nnarration failed:", event.Err)
			}
		case state := <-result:
			if state == playback.StateDrained {
				fmt.Println("tour complete")
				return
			}
			fmt.Println("\ntour stopped")
			os.Exit(1)
		}
	}
}

// buildStream picks the narration source: a tourlined server when one is
// given, otherwise an in-process provider.
func buildStream(ctx context.Context, serverURL string, graph *tour.Graph, order []string) *narration.Stream {
	if serverURL != "" {
		client := narration.NewClient(strings.TrimRight(serverURL, "/") + "/api/chat/stream")
		stream, err := client.Stream(ctx, narration.StreamRequest{
			QuestionID: string(insight.ModeTour),
			Graph:      *graph,
			TourOrder:  order,
		})
		if err != nil {
			return narration.FromDeltas(func(yield func(string, error) bool) {
				yield("", err)
			})
		}
		return stream
	}
	return narration.FromDeltas(narrationSource(ctx, graph, order))
}

// narrationSource picks the narration provider: the OpenAI adapter when a
// key is configured, otherwise an offline narration built from the graph.
func narrationSource(ctx context.Context, graph *tour.Graph, order []string) iter.Seq2[string, error] {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		slog.Info("OPENAI_API_KEY not set, narrating offline from the graph")
		return offlineNarration(graph, order)
	}

	prompt, err := insight.BuildPrompt(insight.ModeTour, graph, order)
	if err != nil {
		return func(yield func(string, error) bool) { yield("", err) }
	}
	opts := []openai.Option{}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		opts = append(opts, openai.WithModel(model))
	}
	provider := openai.New(apiKey, opts...)
	return provider.Narrate(ctx, narrator.Request{
		System:      prompt.System,
		User:        prompt.User,
		Temperature: prompt.Temperature,
	})
}

// offlineNarration renders one numbered line per stop from the tour cards.
func offlineNarration(graph *tour.Graph, order []string) iter.Seq2[string, error] {
	cards := insight.Tour(graph, order, len(order)).TourNodes
	return func(yield func(string, error) bool) {
		for i, card := range cards {
			line := fmt.Sprintf("%d. %s", i+1, card.Name)
			if card.Type != "" {
				line += " (" + card.Type + ")"
			}
			line += fmt.Sprintf(" connects %d nodes", card.Degree)
			if len(card.Neighbors) > 0 {
				line += ", including " + strings.Join(card.Neighbors, ", ")
			}
			if !yield(line+".\n", nil) {
				return
			}
		}
	}
}
