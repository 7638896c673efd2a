// Package bot parses inbound text commands and drives the fetch + render +
// reply cycle for each of them.
package bot

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"nasabot/internal/nasa"
	"nasabot/internal/render"
	"nasabot/internal/store"
	kit "nasabot/internal/transport"
	logx "nasabot/pkg/logx"
)

// Prefix marks a message as a command.
const Prefix = "!"

// maxResults caps how many rover photos / search results one command replies with.
const maxResults = 3

// defaultQuery is used when !earth is invoked without search terms.
const defaultQuery = "earth"

const commandTimeout = 30 * time.Second

// Fetcher is the upstream data surface the dispatcher needs; *nasa.Client
// implements it, tests substitute fakes.
type Fetcher interface {
	Apod(ctx context.Context, date string) (*nasa.Apod, error)
	MarsPhotos(ctx context.Context, date string) ([]nasa.RoverPhoto, error)
	SearchImages(ctx context.Context, query string) ([]nasa.ImageSearchItem, error)
	SolarFlares(ctx context.Context) ([]nasa.FlareEvent, error)
	Trivia(ctx context.Context) (string, error)
}

type Request struct {
	Msg     *kit.Message
	Chat    kit.ChatTarget
	FromID  int64
	Command string
	Args    []string
	ReqID   string
	Logger  logx.Logger
}

type Dispatcher struct {
	log     logx.Logger
	adapter kit.Adapter
	store   *store.Store
	fetch   Fetcher

	// now is injectable so the random-date window is testable.
	now func() time.Time

	jobs chan func()
}

func NewDispatcher(log logx.Logger, adapter kit.Adapter, st *store.Store, fetch Fetcher) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{
		log:     log,
		adapter: adapter,
		store:   st,
		fetch:   fetch,
		now:     time.Now,
		jobs:    make(chan func(), 256),
	}
}

// Run consumes updates until ctx is done. Command handlers execute on a
// bounded worker pool so a slow upstream fetch never stalls the poll loop.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan kit.Update) error {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		idx := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-d.jobs:
					if !ok {
						return
					}
					// A handler should never panic (middleware catches), but
					// keep the worker alive if one does.
					func() {
						defer func() {
							if r := recover(); r != nil {
								d.log.Error("panic in command job", logx.Int("worker", idx), logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
							}
						}()
						job()
					}()
				}
			}
		}()
	}

	d.log.Info("command dispatcher started", logx.Int("workers", workers))
	defer func() {
		wg.Wait()
		d.log.Info("command dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if up.Kind != kit.UpdateMessage || up.Message == nil {
				continue
			}
			d.routeMessage(ctx, up.Message)
		}
	}
}

func (d *Dispatcher) routeMessage(ctx context.Context, msg *kit.Message) {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, Prefix) {
		return
	}

	parts := strings.Fields(text[len(Prefix):])
	if len(parts) == 0 {
		return
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]

	handler, known := d.lookup(command, args)
	if !known {
		d.reply(ctx, kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID}, "Unknown command! Use !help to see all commands.")
		return
	}

	rid := newReqID()
	req := &Request{
		Msg:     msg,
		Chat:    kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID},
		FromID:  msg.FromID,
		Command: command,
		Args:    args,
		ReqID:   rid,
		Logger: d.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int64("from_id", msg.FromID),
			logx.String("cmd", command),
		),
	}

	final := Chain(
		handler,
		MWPanicRecover(d.log),
		MWRequestLog(d.log),
		MWTimeout(commandTimeout),
	)

	select {
	case d.jobs <- func() { _ = final(ctx, req) }:
	default:
		d.reply(ctx, req.Chat, "Busy, try again in a moment.")
	}
}

func (d *Dispatcher) lookup(command string, args []string) (HandlerFunc, bool) {
	switch command {
	case "help":
		return d.cmdHelp, true
	case "setchannel":
		return d.cmdSetChannel, true
	case "apod":
		return d.cmdApod, true
	case "mars":
		return d.cmdMars, true
	case "earth":
		return d.cmdEarth, true
	case "nasa":
		// Only the literal "nasa random" form exists.
		if len(args) > 0 && strings.EqualFold(args[0], "random") {
			return d.cmdNasaRandom, true
		}
		return nil, false
	case "trivia":
		return d.cmdTrivia, true
	case "spaceweather":
		return d.cmdSpaceWeather, true
	default:
		return nil, false
	}
}

// ---- Handlers ----

func (d *Dispatcher) cmdHelp(ctx context.Context, req *Request) error {
	d.reply(ctx, req.Chat, helpText)
	return nil
}

func (d *Dispatcher) cmdSetChannel(ctx context.Context, req *Request) error {
	if !d.adapter.CanManageChat(ctx, req.Chat.ChatID, req.FromID) {
		d.reply(ctx, req.Chat, "❌ You don't have permission to set the channel.")
		return nil
	}
	tenant := strconv.FormatInt(req.Chat.ChatID, 10)
	target := strconv.FormatInt(req.Chat.ChatID, 10)
	if err := d.store.Set(tenant, target); err != nil {
		req.Logger.Error("channel registration failed", logx.Err(err))
		d.reply(ctx, req.Chat, "Couldn't save the channel setting, please try again.")
		return err
	}
	d.reply(ctx, req.Chat, "✅ This channel has been set for daily APOD posts.")
	return nil
}

func (d *Dispatcher) cmdApod(ctx context.Context, req *Request) error {
	date := argOr(req.Args, 0, "")
	if date == "" {
		date = randomPastDate(d.now())
	}
	item, err := d.fetch.Apod(ctx, date)
	if err != nil {
		req.Logger.Warn("apod fetch failed", logx.Err(err))
		d.reply(ctx, req.Chat, "Couldn't fetch APOD right now.")
		return nil
	}
	d.sendPayloads(ctx, req, render.Apod(item))
	return nil
}

func (d *Dispatcher) cmdMars(ctx context.Context, req *Request) error {
	date := argOr(req.Args, 0, "")
	if date == "" {
		date = randomPastDate(d.now())
	}
	photos, err := d.fetch.MarsPhotos(ctx, date)
	if err != nil {
		req.Logger.Warn("mars fetch failed", logx.Err(err))
		photos = nil
	}
	if len(photos) == 0 {
		d.reply(ctx, req.Chat, "No Mars photos found for that date.")
		return nil
	}
	if len(photos) > maxResults {
		photos = photos[:maxResults]
	}
	for _, p := range photos {
		d.sendPayloads(ctx, req, []kit.Payload{render.RoverPhoto(p)})
	}
	return nil
}

func (d *Dispatcher) cmdEarth(ctx context.Context, req *Request) error {
	query := strings.Join(req.Args, " ")
	if query == "" {
		query = defaultQuery
	}
	items, err := d.fetch.SearchImages(ctx, query)
	if err != nil {
		req.Logger.Warn("image search failed", logx.Err(err))
		items = nil
	}
	if len(items) == 0 {
		d.reply(ctx, req.Chat, `No images found for "`+query+`".`)
		return nil
	}
	if len(items) > maxResults {
		items = items[:maxResults]
	}
	for _, it := range items {
		p, ok := render.ImageSearchItem(it)
		if !ok {
			continue
		}
		d.sendPayloads(ctx, req, []kit.Payload{p})
	}
	return nil
}

func (d *Dispatcher) cmdNasaRandom(ctx context.Context, req *Request) error {
	// Always random, even if the user tacked on a date.
	item, err := d.fetch.Apod(ctx, randomPastDate(d.now()))
	if err != nil {
		req.Logger.Warn("apod fetch failed", logx.Err(err))
		d.reply(ctx, req.Chat, "Couldn't fetch random NASA image.")
		return nil
	}
	d.sendPayloads(ctx, req, render.Apod(item))
	return nil
}

func (d *Dispatcher) cmdTrivia(ctx context.Context, req *Request) error {
	fact, err := d.fetch.Trivia(ctx)
	if err != nil {
		d.reply(ctx, req.Chat, "Couldn't fetch a fact right now.")
		return nil
	}
	d.reply(ctx, req.Chat, "🪐 Space Trivia: "+fact)
	return nil
}

func (d *Dispatcher) cmdSpaceWeather(ctx context.Context, req *Request) error {
	events, err := d.fetch.SolarFlares(ctx)
	if err != nil {
		req.Logger.Warn("space weather fetch failed", logx.Err(err))
		events = nil
	}
	if len(events) == 0 {
		d.reply(ctx, req.Chat, "No recent space weather events found.")
		return nil
	}
	d.sendPayloads(ctx, req, []kit.Payload{render.SolarFlare(events[0])})
	return nil
}

// ---- Helpers ----

func (d *Dispatcher) reply(ctx context.Context, to kit.ChatTarget, text string) {
	if _, err := d.adapter.SendText(ctx, to, text, nil); err != nil {
		d.log.Warn("reply failed", logx.Int64("chat_id", to.ChatID), logx.Err(err))
	}
}

func (d *Dispatcher) sendPayloads(ctx context.Context, req *Request, payloads []kit.Payload) {
	for _, p := range payloads {
		if err := d.adapter.SendPayload(ctx, req.Chat, p); err != nil {
			req.Logger.Warn("payload send failed", logx.Err(err))
		}
	}
}

func argOr(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}

func newReqID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
