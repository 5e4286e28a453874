// Package commands turns chat text into tea house operations and formats
// the replies.
package commands

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"teahouse.bot/internal/teahouse/auth"
	"teahouse.bot/internal/teahouse/economy"
	"teahouse.bot/internal/teahouse/store"
)

// Request is one inbound chat message, already flattened to plain text.
type Request struct {
	UserID   string
	UserName string
	Text     string
}

type command struct {
	name  string
	usage string
	help  string
	group string

	// feature names the command in the "store unavailable" reply; fail in
	// the generic failure reply.
	feature string
	fail    string

	admin   bool
	deny    string
	noStore bool

	run func(ctx context.Context, c *call) (string, error)
}

type call struct {
	Request
	arg  string
	sess store.Session
	r    *Router
}

type Router struct {
	botName string
	svc     *economy.Service
	opener  store.Opener
	authz   auth.Authorizer
	log     zerolog.Logger

	cmds []command
}

type Option func(*Router)

func WithLogger(l zerolog.Logger) Option { return func(r *Router) { r.log = l } }

// WithBotName sets the optional prefix users may put before a command.
func WithBotName(name string) Option { return func(r *Router) { r.botName = name } }

func New(svc *economy.Service, opener store.Opener, authz auth.Authorizer, opts ...Option) *Router {
	r := &Router{
		svc:    svc,
		opener: opener,
		authz:  authz,
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.authz == nil {
		r.authz = auth.NewStatic()
	}
	r.cmds = r.table()
	sort.SliceStable(r.cmds, func(i, j int) bool { return len(r.cmds[i].name) > len(r.cmds[j].name) })
	return r
}

// Normalize strips an optional bot-name prefix and the command word from
// text and returns the trailing argument. ok is false when text is not the
// given command; the command word must end the text or be followed by
// whitespace.
func Normalize(text, botName, cmd string) (arg string, ok bool) {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "/")
	if botName != "" && strings.HasPrefix(t, botName) {
		t = strings.TrimSpace(t[len(botName):])
	}
	if cmd == "" || !strings.HasPrefix(t, cmd) {
		return "", false
	}
	rest := t[len(cmd):]
	if r, _ := utf8.DecodeRuneInString(rest); rest != "" && !unicode.IsSpace(r) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func (r *Router) match(text string) (command, string, bool) {
	for _, c := range r.cmds {
		if arg, ok := Normalize(text, r.botName, c.name); ok {
			return c, arg, true
		}
	}
	return command{}, "", false
}

// Handle runs the command in req.Text. handled is false when the text is
// not a tea house command; callers should then stay silent.
func (r *Router) Handle(ctx context.Context, req Request) (reply string, handled bool) {
	cmd, arg, ok := r.match(req.Text)
	if !ok {
		return "", false
	}
	if req.UserName == "" {
		req.UserName = req.UserID
	}
	log := r.log.With().Str("user_id", req.UserID).Str("command", cmd.name).Logger()
	log.Debug().Str("arg", arg).Msg("command")

	c := &call{Request: req, arg: arg, r: r}
	if cmd.noStore {
		if cmd.admin && !r.authz.IsAuthorized(req.UserID) {
			return cmd.deny, true
		}
		out, err := cmd.run(ctx, c)
		return r.finish(log, cmd, out, err)
	}

	if err := r.opener.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("store ping failed")
		return r.unavailable(cmd), true
	}
	if cmd.admin && !r.authz.IsAuthorized(req.UserID) {
		return cmd.deny, true
	}

	sess, err := r.opener.Open(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return r.unavailable(cmd), true
		}
		log.Error().Err(err).Msg("open session")
		return cmd.fail + "失败，请稍后再试。", true
	}
	defer sess.Close()
	c.sess = sess

	if err := r.svc.Tasks().EnsureCatalog(ctx, sess); err != nil {
		log.Warn().Err(err).Msg("task catalog not seeded")
	}
	out, err := cmd.run(ctx, c)
	return r.finish(log, cmd, out, err)
}

func (r *Router) finish(log zerolog.Logger, cmd command, reply string, err error) (string, bool) {
	if err == nil {
		return reply, true
	}
	if errors.Is(err, store.ErrUnavailable) {
		return r.unavailable(cmd), true
	}
	log.Error().Err(err).Msg("command failed")
	return cmd.fail + "失败，请稍后再试。", true
}

func (r *Router) unavailable(cmd command) string {
	return "数据库未连接，" + cmd.feature + "功能无法使用。\n请检查服务配置中的 db 设置并确认数据库可以访问。"
}

// cmd renders a command the way users type it.
func (r *Router) cmd(name string) string { return r.botName + name }
