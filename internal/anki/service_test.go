package anki_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/flashsheet/internal/anki"
	"github.com/kpauljoseph/flashsheet/pkg/logger"
)

// fakeAnki answers AnkiConnect actions and records what it was sent.
type fakeAnki struct {
	mu      sync.Mutex
	models  []string
	hashes  map[string]bool
	actions []string
	notes   []map[string]interface{}
	media   []string
	failN   int
}

func (f *fakeAnki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req struct {
		Action string                 `json:"action"`
		Params map[string]interface{} `json:"params"`
	}
	Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
	f.actions = append(f.actions, req.Action)

	reply := func(result interface{}, errMsg interface{}) {
		json.NewEncoder(w).Encode(map[string]interface{}{"result": result, "error": errMsg})
	}

	if f.failN > 0 {
		f.failN--
		reply(nil, "collection is busy")
		return
	}

	switch req.Action {
	case "version":
		reply(6, nil)
	case "modelNames":
		reply(f.models, nil)
	case "createModel":
		f.models = append(f.models, req.Params["modelName"].(string))
		reply(nil, nil)
	case "createDeck":
		reply(1, nil)
	case "findNotes":
		query := req.Params["query"].(string)
		if f.hashes[query] {
			reply([]int64{42}, nil)
			return
		}
		reply([]int64{}, nil)
	case "storeMediaFile":
		f.media = append(f.media, req.Params["filename"].(string))
		reply(nil, nil)
	case "addNote":
		note := req.Params["note"].(map[string]interface{})
		f.notes = append(f.notes, note)
		fields := note["fields"].(map[string]interface{})
		f.hashes["Hash:"+fields["Hash"].(string)] = true
		reply(len(f.notes), nil)
	default:
		reply(nil, "unsupported action")
	}
}

var _ = Describe("Service", func() {
	var (
		fake    *fakeAnki
		server  *httptest.Server
		service *anki.Service
		ctx     context.Context
		image   string
	)

	BeforeEach(func() {
		fake = &fakeAnki{hashes: make(map[string]bool)}
		server = httptest.NewServer(fake)
		DeferCleanup(server.Close)

		log := logger.New(logger.WithOutput(GinkgoWriter), logger.WithTimestamps(false))
		service = anki.NewService(log, anki.WithURL(server.URL), anki.WithRetryDelay(time.Millisecond))
		ctx = context.Background()

		dir, err := os.MkdirTemp("", "flashsheet-connect-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
		image = filepath.Join(dir, "heart.png")
		Expect(os.WriteFile(image, []byte("png"), 0644)).To(Succeed())
	})

	It("should check the connection", func() {
		Expect(service.CheckConnection(ctx)).To(Succeed())
		Expect(fake.actions).To(Equal([]string{"version"}))
	})

	It("should fail the connection check when nothing listens", func() {
		server.Close()
		Expect(service.CheckConnection(ctx)).To(MatchError(ContainSubstring("AnkiConnect add-on is installed")))
	})

	It("should create the model once and upload media with each note", func() {
		notes := []anki.Note{
			{Card: 1, Front: "q1", Back: `<img src="heart.png">`, Hash: "h1", Media: []string{image}},
			{Card: 2, Front: "q2", Back: "a2", Hash: "h2"},
		}

		added, err := service.AddAllNotes(ctx, "Go::Basics", notes)
		Expect(err).NotTo(HaveOccurred())
		Expect(added).To(Equal(2))

		Expect(fake.models).To(Equal([]string{anki.ModelName}))
		Expect(fake.media).To(Equal([]string{"heart.png"}))
		Expect(fake.notes).To(HaveLen(2))
		Expect(fake.notes[0]["deckName"]).To(Equal("Go::Basics"))
		Expect(fake.notes[0]["tags"]).To(ContainElement("Go_Basics"))
	})

	It("should skip notes whose hash is already present", func() {
		fake.hashes["Hash:h1"] = true

		added, err := service.AddAllNotes(ctx, "Go", []anki.Note{{Card: 1, Front: "q", Back: "a", Hash: "h1"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(added).To(BeZero())
		Expect(fake.notes).To(BeEmpty())
	})

	It("should retry requests that fail", func() {
		fake.failN = 2
		Expect(service.CreateDeck(ctx, "Go")).To(Succeed())
		Expect(fake.actions).To(Equal([]string{"createDeck", "createDeck", "createDeck"}))
	})

	It("should give up after the last retry", func() {
		fake.failN = anki.MaxRetries
		Expect(service.CreateDeck(ctx, "Go")).To(MatchError(ContainSubstring("collection is busy")))
	})
})
