// Command client is a terminal chat client. It logs into the backend, joins
// a room and runs the sync pipeline: realtime delivery with poll fallback,
// offline queueing of sends, and translation into the viewer's language.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"lingochat/internal/config"
	"lingochat/internal/gateway"
	"lingochat/internal/localstore"
	"lingochat/internal/models"
	"lingochat/internal/sync"
	"lingochat/internal/translate"
)

type loginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Language string `json:"language"`
}

// consoleSink renders pipeline output to stdout.
type consoleSink struct{}

func (consoleSink) OnMessageReady(msg models.Message) {
	prefix := ""
	if msg.IsAnnouncement {
		prefix = "[announcement] "
	}
	fmt.Printf("%s %s%s: %s\n", msg.CreatedAt.Format("15:04:05"), prefix, msg.Username, msg.Content)
}

func (consoleSink) OnMessageUpdated(id uuid.UUID, patch sync.MessagePatch) {
	if patch.TranslatedContent != nil {
		fmt.Printf("  ~ %s\n", *patch.TranslatedContent)
	}
	if patch.Status == models.StatusFailed {
		fmt.Printf("  ! send failed, will retry (message %s)\n", id)
	}
}

func main() {
	config.Load()

	server := flag.String("server", config.Get("SERVER_URL", "http://localhost:8080"), "backend base URL")
	email := flag.String("email", os.Getenv("CHAT_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("CHAT_PASSWORD"), "account password")
	roomFlag := flag.String("room", "", "room id to join")
	storePath := flag.String("store", config.Get("LOCAL_STORE", "lingochat.db"), "local cache path")
	flag.Parse()

	if *email == "" || *password == "" || *roomFlag == "" {
		log.Fatal("email, password and room are required")
	}

	roomID, err := uuid.Parse(*roomFlag)
	if err != nil {
		log.Fatalf("invalid room id: %v", err)
	}

	login, err := doLogin(*server, *email, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	userID, err := uuid.Parse(login.UserID)
	if err != nil {
		log.Fatalf("bad user id in login response: %v", err)
	}

	store, err := localstore.Open(*storePath)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	defer store.Close()

	remote := gateway.NewRemoteClient(*server, login.Token)
	gw := gateway.New(remote, store)

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws"
	push := gateway.NewPushClient(wsURL, login.Token)
	subscriber := sync.NewSubscriber(gw.FetchSince, push, sync.DefaultPollInterval)

	translator := translate.NewHTTPTranslator(
		config.Get("TRANSLATE_URL", "https://libretranslate.com/translate"),
		os.Getenv("TRANSLATE_API_KEY"),
	)
	decorator := translate.NewDecorator(translator, translate.NewMemoryCache())

	queue := sync.NewOfflineQueue(store, roomID)

	pipeline := sync.NewPipeline(sync.Config{
		RoomID:   roomID,
		UserID:   userID,
		Username: login.Username,
		Language: login.Language,
	}, gw, subscriber, queue, decorator, consoleSink{})

	if err := pipeline.Start(); err != nil {
		log.Fatalf("start pipeline: %v", err)
	}
	defer pipeline.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probe := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, *server+"/healthz", nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	}
	monitor := sync.NewMonitor(probe, 10*time.Second, pipeline.SetOnline)
	go monitor.Run(ctx)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	fmt.Printf("joined room %s as %s (%s). Type to chat, /quit to exit.\n", roomID, login.Username, login.Language)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}

		if _, err := pipeline.SendMessage(ctx, line, nil); err != nil {
			fmt.Printf("  ! %v\n", err)
		}
	}
}

func doLogin(server, email, password string) (*loginResponse, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(server+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login: unexpected status %d", resp.StatusCode)
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return nil, err
	}

	return &login, nil
}
