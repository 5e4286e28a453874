package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func decodeSample(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("sample: %v", err)
	}
	return v
}

func TestSchemas_ValidateSamples(t *testing.T) {
	digest := strings.Repeat("ab", 32)
	samples := map[string]string{
		"hello.schema.json": `{
		  "type":"HELLO",
		  "protocol_version":"1.0",
		  "bot_name":"雪泷",
		  "capabilities":{"ack_required":true,"max_queue":8},
		  "auth":{"token":"x.y.z"}
		}`,
		"welcome.schema.json": `{
		  "type":"WELCOME",
		  "protocol_version":"1.0",
		  "session_id":"0192b3c4-0000-7000-8000-000000000000",
		  "bot_name":"雪泷",
		  "subject":"qq-bridge",
		  "server_capabilities":{"ack":true},
		  "catalogs":{"tasks_digest":"` + digest + `","ratings_digest":"` + digest + `"}
		}`,
		"message.schema.json": `{
		  "type":"MESSAGE",
		  "protocol_version":"1.0",
		  "message_id":"m-1",
		  "user_id":"10001",
		  "user_name":"小明",
		  "group_id":"g-1",
		  "segments":[{"type":"at","target":"bot"},{"type":"text","text":" 签到"}]
		}`,
		"reply.schema.json": `{
		  "type":"REPLY",
		  "protocol_version":"1.0",
		  "in_reply_to":"m-1",
		  "user_id":"10001",
		  "text":"小明\n签到成功"
		}`,
		"ack.schema.json": `{
		  "type":"ACK",
		  "protocol_version":"1.0",
		  "ack_for":"m-1",
		  "accepted":false,
		  "code":"E_BAD_REQUEST",
		  "message":"missing user_id"
		}`,
	}
	for name, raw := range samples {
		s := compileSchema(t, name)
		if err := s.Validate(decodeSample(t, raw)); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestSchemas_RejectInvalid(t *testing.T) {
	cases := []struct {
		schema string
		raw    string
	}{
		{"hello.schema.json", `{"type":"HELLO","protocol_version":"1.0"}`},
		{"hello.schema.json", `{"type":"HELLO","protocol_version":"1.0","bot_name":"b","capabilities":{"max_queue":0}}`},
		{"welcome.schema.json", `{"type":"WELCOME","protocol_version":"1.0","session_id":"s","bot_name":"b","catalogs":{"tasks_digest":"short","ratings_digest":"short"}}`},
		{"message.schema.json", `{"type":"MESSAGE","protocol_version":"1.0","message_id":"m","user_id":"u"}`},
		{"message.schema.json", `{"type":"REPLY","protocol_version":"1.0","message_id":"m","user_id":"u","text":"x"}`},
		{"ack.schema.json", `{"type":"ACK","protocol_version":"1.0","ack_for":"m","accepted":false,"code":"bad"}`},
	}
	for _, c := range cases {
		s := compileSchema(t, c.schema)
		if err := s.Validate(decodeSample(t, c.raw)); err == nil {
			t.Fatalf("%s accepted %s", c.schema, c.raw)
		}
	}
}
