package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"teahouse.bot/internal/protocol"
)

// A terminal chat host: every stdin line is sent as a MESSAGE and replies
// are printed.
func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "gateway ws url")
		host  = flag.String("host", "terminal", "host name sent in HELLO")
		token = flag.String("token", os.Getenv("TEAHOUSE_TOKEN"), "gateway token")
		user  = flag.String("user", "10001", "chat user id")
		name  = flag.String("name", "茶客", "chat user name")
		group = flag.String("group", "", "chat group id")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("dial")
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		BotName:         *host,
		Capabilities:    protocol.HelloCapabilities{MaxQueue: 8},
	}
	if *token != "" {
		hello.Auth = &protocol.HelloAuth{Token: *token}
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatal().Err(err).Msg("send HELLO")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Info().Err(err).Msg("connection closed")
				return
			}
			printFrame(logger, msg)
		}
	}()

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		id, _ := uuid.NewV7()
		m := protocol.MessageMsg{
			Type:            protocol.TypeMessage,
			ProtocolVersion: protocol.Version,
			MessageID:       id.String(),
			UserID:          *user,
			UserName:        *name,
			GroupID:         *group,
			Segments:        []protocol.Segment{{Type: protocol.SegText, Text: text}},
		}
		if err := conn.WriteJSON(m); err != nil {
			logger.Error().Err(err).Msg("send MESSAGE")
			break
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func printFrame(logger zerolog.Logger, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err == nil {
			logger.Info().Str("session_id", w.SessionID).Str("bot_name", w.BotName).Msg("WELCOME")
		}
	case protocol.TypeReply:
		var r protocol.ReplyMsg
		if err := json.Unmarshal(msg, &r); err == nil {
			fmt.Println(r.Text)
			fmt.Println()
		}
	case protocol.TypeAck:
		var a protocol.AckMsg
		if err := json.Unmarshal(msg, &a); err == nil && !a.Accepted {
			logger.Warn().Str("code", a.Code).Str("ack_for", a.AckFor).Msg(a.Message)
		}
	}
}
