package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
)

// GameEvent mirrors the message format on the game-events topic.
type GameEvent struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Score    int64  `json:"score,omitempty"`
}

var namePrefixes = []string{
	"Phoenix", "Shadow", "Thunder", "Storm", "Blaze", "Ninja", "Dragon", "Wolf", "Hawk", "Viper",
	"Ghost", "Titan", "Frost", "Cyber", "Nova", "Raven", "Omega", "Alpha", "Delta", "Sigma",
	"Ace", "Bolt", "Crash", "Dash", "Edge", "Flash", "Glitch", "Haze", "Ion", "Jade",
	"Knight", "Luna", "Mystic", "Neon", "Orion", "Pulse", "Quantum", "Rebel", "Spark", "Turbo",
}

var avatars = []string{"🍉", "🍒", "🍇", "🍊", "🍋", "🍎", "🍐", "🥝"}

func playerName(idx int) string {
	prefixIdx := idx % len(namePrefixes)
	suffix := idx/len(namePrefixes) + 1
	return fmt.Sprintf("%s%d", namePrefixes[prefixIdx], suffix)
}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "game-events", "Kafka topic")
	totalPlayers := flag.Int("players", 1000, "Number of simulated players")
	eventsPerSecond := flag.Int("rate", 100, "Events per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")

	fmt.Printf("game-events load generator\n")
	fmt.Printf("  brokers:    %s\n", *brokers)
	fmt.Printf("  topic:      %s\n", *topic)
	fmt.Printf("  players:    %d\n", *totalPlayers)
	fmt.Printf("  events/sec: %d\n\n", *eventsPerSecond)

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	sendEvent := func(event GameEvent) {
		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal event: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(event.PlayerID),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-done:
			return
		}
	}

	// inGame tracks which simulated players have an open round so the
	// event stream stays plausible (start before end).
	inGame := make(map[int]int64, *totalPlayers)

	makeEvent := func() GameEvent {
		idx := rand.Intn(*totalPlayers)
		id := fmt.Sprintf("%d", 100000+idx)
		name := playerName(idx)
		avatar := avatars[idx%len(avatars)]

		if score, playing := inGame[idx]; playing {
			// Either keep playing (heartbeat) or finish the round.
			if rand.Intn(100) < 40 {
				delete(inGame, idx)
				return GameEvent{Type: "game_end", PlayerID: id, Name: name, Avatar: avatar, Score: score}
			}
			inGame[idx] = score + int64(rand.Intn(500))
			return GameEvent{Type: "heartbeat", PlayerID: id, Name: name, Avatar: avatar, Score: inGame[idx]}
		}

		if rand.Intn(100) < 30 {
			inGame[idx] = int64(rand.Intn(1000))
			return GameEvent{Type: "game_start", PlayerID: id, Name: name, Avatar: avatar}
		}
		return GameEvent{Type: "heartbeat", PlayerID: id, Name: name, Avatar: avatar}
	}

	shutdown := func() {
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\nDone. Sent: %d, Errors: %d\n",
			atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	interval := time.Second / time.Duration(*eventsPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	var eventCount int64

	fmt.Println("Press Ctrl+C to stop")
	for {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			shutdown()
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				fmt.Println("\nDuration reached, shutting down...")
				shutdown()
				return
			}

			sendEvent(makeEvent())
			atomic.AddInt64(&eventCount, 1)

		case <-statsTicker.C:
			fmt.Printf("[%s] Events: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&eventCount),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
