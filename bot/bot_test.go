package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/SaimonDevStore/SJOFERTAS/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSender struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	nextID    int

	failPhoto   bool
	failText    bool
	failRequest bool
}

func (fs *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.sent = append(fs.sent, c)
	switch v := c.(type) {
	case tgbotapi.PhotoConfig:
		if fs.failPhoto {
			return tgbotapi.Message{}, errors.New("Bad Request: wrong file identifier/HTTP URL specified")
		}
	case tgbotapi.MessageConfig:
		if fs.failText && v.Text != processingText && v.Text != genericFailure {
			return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
		}
	}
	fs.nextID++
	return tgbotapi.Message{MessageID: fs.nextID}, nil
}

func (fs *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.requested = append(fs.requested, c)
	if fs.failRequest {
		return nil, errors.New("Bad Request: message can't be deleted")
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (fs *fakeSender) texts() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []string
	for _, c := range fs.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (fs *fakeSender) photos() []tgbotapi.PhotoConfig {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range fs.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

func (fs *fakeSender) deletes() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for _, c := range fs.requested {
		if _, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			n++
		}
	}
	return n
}

type fakeExtractor struct {
	mu     sync.Mutex
	urls   []string
	record models.ProductRecord
}

func (fe *fakeExtractor) Extract(rawURL string) models.ProductRecord {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.urls = append(fe.urls, rawURL)
	record := fe.record
	record.OriginalURL = rawURL
	return record
}

func sampleRecord() models.ProductRecord {
	return models.ProductRecord{
		Name:      "Fone Bluetooth",
		Price:     "R$ 49,90",
		Delivery:  models.DeliveryDomestic,
		Available: true,
		Platform:  models.PlatformShopee,
	}
}

func newTestBot(t *testing.T, sender *fakeSender, extractor *fakeExtractor) (*Bot, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	b, err := New(sender, extractor, reg)
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	return b, reg
}

func TestHandleIgnoresMessagesWithoutLinks(t *testing.T) {
	sender := &fakeSender{}
	extractor := &fakeExtractor{record: sampleRecord()}
	b, _ := newTestBot(t, sender, extractor)

	if err := b.Handle(context.Background(), models.Message{ChatID: 1, Text: "bom dia, alguma oferta?"}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sender.sent) != 0 || len(sender.requested) != 0 {
		t.Fatalf("expected no reply, got %d sends", len(sender.sent))
	}
	if len(extractor.urls) != 0 {
		t.Fatalf("extractor should not be called")
	}
	if got := testutil.ToFloat64(b.messages.WithLabelValues("no_link")); got != 1 {
		t.Fatalf("no_link counter = %v, want 1", got)
	}
}

func TestHandleUsesOnlyFirstLink(t *testing.T) {
	sender := &fakeSender{}
	extractor := &fakeExtractor{record: sampleRecord()}
	b, _ := newTestBot(t, sender, extractor)

	text := "olha https://shopee.com.br/fone-i.1.2 e tambem https://pt.aliexpress.com/item/9.html"
	if err := b.Handle(context.Background(), models.Message{ChatID: 7, Text: text}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(extractor.urls) != 1 || extractor.urls[0] != "https://shopee.com.br/fone-i.1.2" {
		t.Fatalf("extracted urls = %v, want only the first link", extractor.urls)
	}

	texts := sender.texts()
	if len(texts) != 2 {
		t.Fatalf("sent texts = %v, want processing message and reply", texts)
	}
	if texts[0] != processingText {
		t.Fatalf("first message = %q, want processing placeholder", texts[0])
	}
	if !strings.Contains(texts[1], "*Fone Bluetooth* | _Pronta Entrega | BR_") {
		t.Fatalf("reply = %q", texts[1])
	}
	if sender.deletes() != 1 {
		t.Fatalf("processing message should be deleted once, got %d", sender.deletes())
	}
}

func TestHandleSendsPhotoWhenImagePresent(t *testing.T) {
	sender := &fakeSender{}
	record := sampleRecord()
	record.ImageURL = "https://cf.shopee.com.br/file/fone.jpg"
	extractor := &fakeExtractor{record: record}
	b, _ := newTestBot(t, sender, extractor)

	if err := b.Handle(context.Background(), models.Message{ChatID: 7, Text: "https://shp.ee/abc"}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	photos := sender.photos()
	if len(photos) != 1 {
		t.Fatalf("photos sent = %d, want 1", len(photos))
	}
	if photos[0].ParseMode != tgbotapi.ModeMarkdown || !strings.Contains(photos[0].Caption, "💵 *R$ 49,90*") {
		t.Fatalf("caption = %q parse mode = %q", photos[0].Caption, photos[0].ParseMode)
	}
	if texts := sender.texts(); len(texts) != 1 {
		t.Fatalf("only the processing text should be sent, got %v", texts)
	}
	if got := testutil.ToFloat64(b.messages.WithLabelValues("photo")); got != 1 {
		t.Fatalf("photo counter = %v, want 1", got)
	}
}

func TestHandleFallsBackToTextWhenPhotoFails(t *testing.T) {
	sender := &fakeSender{failPhoto: true}
	record := sampleRecord()
	record.ImageURL = "https://cf.shopee.com.br/file/broken.jpg"
	extractor := &fakeExtractor{record: record}
	b, _ := newTestBot(t, sender, extractor)

	if err := b.Handle(context.Background(), models.Message{ChatID: 7, Text: "https://shp.ee/abc"}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	texts := sender.texts()
	if len(texts) != 2 || !strings.Contains(texts[1], "Link do produto") {
		t.Fatalf("expected text reply after photo failure, got %v", texts)
	}
	if got := testutil.ToFloat64(b.messages.WithLabelValues("text")); got != 1 {
		t.Fatalf("text counter = %v, want 1", got)
	}
}

func TestHandleReportsFailureWhenReplyFails(t *testing.T) {
	sender := &fakeSender{failText: true, failRequest: true}
	extractor := &fakeExtractor{record: sampleRecord()}
	b, _ := newTestBot(t, sender, extractor)

	err := b.Handle(context.Background(), models.Message{ChatID: 7, Text: "https://shp.ee/abc"})
	if err == nil {
		t.Fatalf("expected error when the reply cannot be sent")
	}

	texts := sender.texts()
	if texts[len(texts)-1] != genericFailure {
		t.Fatalf("last message = %q, want generic failure", texts[len(texts)-1])
	}
	if sender.deletes() != 2 {
		t.Fatalf("expected two best-effort deletes, got %d", sender.deletes())
	}
}

func TestHandleInvalidRecordEditsPlaceholder(t *testing.T) {
	sender := &fakeSender{}
	extractor := &fakeExtractor{record: models.ProductRecord{}}
	b, _ := newTestBot(t, sender, extractor)

	if err := b.Handle(context.Background(), models.Message{ChatID: 7, Text: "https://shp.ee/abc"}); err == nil {
		t.Fatalf("expected error for an empty record")
	}

	var edited string
	for _, c := range sender.requested {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			edited = e.Text
		}
	}
	if edited != extractFailedText {
		t.Fatalf("edited text = %q, want %q", edited, extractFailedText)
	}
}

func TestHandleCommands(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{command: "start", want: welcomeText},
		{command: "status", want: statusText},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sender := &fakeSender{}
			b, _ := newTestBot(t, sender, &fakeExtractor{})

			msg := models.Message{ChatID: 3, Text: "/" + tt.command, Command: tt.command}
			if err := b.Handle(context.Background(), msg); err != nil {
				t.Fatalf("handle: %v", err)
			}
			texts := sender.texts()
			if len(texts) != 1 || texts[0] != tt.want {
				t.Fatalf("texts = %v", texts)
			}
		})
	}
}

func TestHandleIgnoresUnknownCommandsWithLinks(t *testing.T) {
	sender := &fakeSender{}
	extractor := &fakeExtractor{record: sampleRecord()}
	b, _ := newTestBot(t, sender, extractor)

	msg := models.Message{ChatID: 3, Text: "/help https://shp.ee/abc", Command: "help"}
	if err := b.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 || len(extractor.urls) != 0 {
		t.Fatalf("unknown commands should be ignored")
	}
}

func TestHandleCancelledContext(t *testing.T) {
	sender := &fakeSender{}
	extractor := &fakeExtractor{record: sampleRecord()}
	b, _ := newTestBot(t, sender, extractor)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Handle(ctx, models.Message{ChatID: 3, Text: "https://shp.ee/abc"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should be sent after cancellation")
	}
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(&fakeSender{}, &fakeExtractor{}, reg); err != nil {
		t.Fatalf("first bot: %v", err)
	}
	if _, err := New(&fakeSender{}, &fakeExtractor{}, reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
