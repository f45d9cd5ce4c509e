package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/Jukitsye777/Preservify/internal/assistant"
	"github.com/Jukitsye777/Preservify/internal/report"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		reporter    *mockReporter
		scanner     *mockScanner
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		reporter = &mockReporter{text: sampleReport}
		scanner = &mockScanner{drafts: []assistant.ItemDraft{{ProductName: "Milk", Category: "Dairy", Quantity: 2, Unit: "l"}}}
		auth = BasicAuth{}
	})

	JustBeforeEach(func() {
		clock := &mockTimeSource{now: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)}
		service := NewServiceWithDeps(db, storage, reporter, scanner, &sequenceIDGenerator{}, clock)
		server := NewServerWithMux(service, auth, http.NewServeMux())

		ghttpServer = ghttp.NewServer()
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions} {
			ghttpServer.RouteToHandler(method, regexp.MustCompile(`.*`), server.ServeHTTP)
		}
	})

	AfterEach(func() {
		ghttpServer.Close()
	})

	do := func(method, path, contentType string, body io.Reader) *http.Response {
		req, err := http.NewRequest(method, ghttpServer.URL()+path, body)
		Expect(err).NotTo(HaveOccurred())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(resp.Body.Close)
		return resp
	}

	doJSON := func(method, path string, v any) *http.Response {
		data, err := json.Marshal(v)
		Expect(err).NotTo(HaveOccurred())
		return do(method, path, "application/json", bytes.NewReader(data))
	}

	decode := func(resp *http.Response, v any) {
		Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
	}

	upload := func(path, filename string, data []byte) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())
		return do(http.MethodPost, path, mw.FormDataContentType(), &buf)
	}

	Describe("the HTML interface", func() {
		It("serves the index page", func() {
			resp := do(http.MethodGet, "/", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("Preservify"))
		})

		It("serves the script", func() {
			resp := do(http.MethodGet, "/static/app.js", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("javascript"))
		})

		It("does not serve unknown paths", func() {
			resp := do(http.MethodGet, "/nope", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("CORS", func() {
		It("answers preflight requests", func() {
			resp := do(http.MethodOptions, "/api/items", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("PUT"))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "chef", Password: "secret"}
		})

		It("rejects requests without credentials", func() {
			resp := do(http.MethodGet, "/api/items", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Preservify"))
		})

		It("accepts the configured credentials", func() {
			req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/items", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("chef", "secret")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("rejects a wrong password", func() {
			req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/items", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("chef", "wrong")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("items", func() {
		It("creates and fetches an item", func() {
			resp := doJSON(http.MethodPost, "/api/items", ItemInput{ProductName: "Curd", Quantity: 2, ExpiryDate: "2025-03-16"})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var created Item
			decode(resp, &created)
			Expect(created.ID).To(Equal("id-1"))

			resp = do(http.MethodGet, "/api/items/id-1", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var fetched Item
			decode(resp, &fetched)
			Expect(fetched.ProductName).To(Equal("Curd"))
		})

		It("rejects an invalid item", func() {
			resp := doJSON(http.MethodPost, "/api/items", ItemInput{Quantity: 2, ExpiryDate: "2025-03-16"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			var body map[string]string
			decode(resp, &body)
			Expect(body["error"]).To(ContainSubstring("product name is required"))
		})

		It("rejects a malformed body", func() {
			resp := do(http.MethodPost, "/api/items", "application/json", strings.NewReader("{"))
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown item", func() {
			resp := do(http.MethodGet, "/api/items/missing", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("updates an item", func() {
			db.items["a"] = &Item{ID: "a", ProductName: "Milk"}
			resp := doJSON(http.MethodPut, "/api/items/a", ItemInput{ProductName: "Oat Milk", Quantity: 1, ExpiryDate: "2025-04-01"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(db.items["a"].ProductName).To(Equal("Oat Milk"))
		})

		It("deletes an item", func() {
			db.items["a"] = &Item{ID: "a", ProductName: "Milk"}
			resp := do(http.MethodDelete, "/api/items/a", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.items).To(BeEmpty())
		})

		It("lists items", func() {
			db.items["a"] = &Item{ID: "a", ProductName: "Milk"}
			resp := do(http.MethodGet, "/api/items", "", nil)
			var items []Item
			decode(resp, &items)
			Expect(items).To(HaveLen(1))
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("boom")
			})

			It("returns a generic error", func() {
				resp := do(http.MethodGet, "/api/items", "", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				var body map[string]string
				decode(resp, &body)
				Expect(body["error"]).To(Equal("Internal server error"))
			})
		})
	})

	Describe("expiring items", func() {
		BeforeEach(func() {
			db.items["soon"] = &Item{ID: "soon", Quantity: 1, ExpiryDate: date("2025-03-16")}
			db.items["later"] = &Item{ID: "later", Quantity: 1, ExpiryDate: date("2025-03-30")}
		})

		It("defaults to a week", func() {
			resp := do(http.MethodGet, "/api/items/expiring", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var items []Item
			decode(resp, &items)
			Expect(items).To(HaveLen(1))
		})

		It("honours the days parameter", func() {
			resp := do(http.MethodGet, "/api/items/expiring?days=30", "", nil)
			var items []Item
			decode(resp, &items)
			Expect(items).To(HaveLen(2))
		})

		It("rejects a bad days parameter", func() {
			resp := do(http.MethodGet, "/api/items/expiring?days=soon", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a window below one day", func() {
			resp := do(http.MethodGet, "/api/items/expiring?days=0", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("item images", func() {
		BeforeEach(func() {
			db.items["a"] = &Item{ID: "a", ProductName: "Milk"}
		})

		It("uploads and serves an image", func() {
			resp := upload("/api/items/a/image", "milk.png", []byte("png-bytes"))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp = do(http.MethodGet, "/api/items/a/image", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(Equal([]byte("png-bytes")))
		})

		It("returns 404 when there is no image", func() {
			resp := do(http.MethodGet, "/api/items/a/image", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("rejects a form without a file", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			Expect(mw.WriteField("note", "no file")).To(Succeed())
			Expect(mw.Close()).To(Succeed())
			resp := do(http.MethodPost, "/api/items/a/image", mw.FormDataContentType(), &buf)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("sales", func() {
		BeforeEach(func() {
			db.items["a"] = &Item{ID: "a", ProductName: "Milk", Quantity: 3}
		})

		It("records a sale", func() {
			resp := doJSON(http.MethodPost, "/api/items/a/sales", map[string]float64{"quantity": 2})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(db.items["a"].Quantity).To(Equal(1.0))

			resp = do(http.MethodGet, "/api/sales", "", nil)
			var sales []Sale
			decode(resp, &sales)
			Expect(sales).To(HaveLen(1))
		})

		It("rejects a sale above the stock", func() {
			resp := doJSON(http.MethodPost, "/api/items/a/sales", map[string]float64{"quantity": 4})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown item", func() {
			resp := doJSON(http.MethodPost, "/api/items/missing/sales", map[string]float64{"quantity": 1})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("receipt scanning", func() {
		It("returns item drafts", func() {
			resp := upload("/api/items/scan", "receipt.png", []byte("png-bytes"))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var drafts []assistant.ItemDraft
			decode(resp, &drafts)
			Expect(drafts).To(HaveLen(1))
			Expect(drafts[0].ProductName).To(Equal("Milk"))
		})

		When("the scanner fails", func() {
			BeforeEach(func() {
				scanner.err = errors.New("model unavailable")
			})

			It("returns a bad gateway", func() {
				resp := upload("/api/items/scan", "receipt.png", []byte("png-bytes"))
				Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
			})
		})
	})

	Describe("reports", func() {
		BeforeEach(func() {
			db.items["soon"] = &Item{ID: "soon", ProductName: "Curd", Category: "Dairy", Quantity: 1, ExpiryDate: date("2025-03-16")}
		})

		It("generates, lists and renders a report", func() {
			resp := doJSON(http.MethodPost, "/api/reports", map[string]any{"theme": "South Indian", "days": 5})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var rep SavedReport
			decode(resp, &rep)
			Expect(rep.Sections).To(ContainElement(report.Section{Name: "Curd Rice", Details: "Mix rice and curd."}))

			resp = do(http.MethodGet, "/api/reports", "", nil)
			var reports []SavedReport
			decode(resp, &reports)
			Expect(reports).To(HaveLen(1))

			resp = do(http.MethodGet, "/api/reports/"+rep.ID, "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp = do(http.MethodGet, "/api/reports/"+rep.ID+"/pdf", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/pdf"))
		})

		It("rejects a window below one day", func() {
			resp := doJSON(http.MethodPost, "/api/reports", map[string]any{"theme": "Italian", "days": 0})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown report", func() {
			resp := do(http.MethodGet, "/api/reports/missing", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		When("the reporter fails", func() {
			BeforeEach(func() {
				reporter.err = errors.New("timeout")
			})

			It("returns a bad gateway", func() {
				resp := doJSON(http.MethodPost, "/api/reports", map[string]any{"theme": "Italian", "days": 5})
				Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
			})
		})

		It("parses posted report text", func() {
			resp := do(http.MethodPost, "/api/reports/parse", "text/plain", strings.NewReader("1. Pasta\nBoil water."))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var sections []report.Section
			decode(resp, &sections)
			Expect(sections).To(Equal([]report.Section{{Name: "Pasta", Details: "Boil water."}}))
		})
	})

	Describe("unconfigured assistants", func() {
		var service *Service

		JustBeforeEach(func() {
			service = NewService(db, storage, nil, nil)
			server := NewServerWithMux(service, auth, http.NewServeMux())
			ghttpServer.Close()
			ghttpServer = ghttp.NewServer()
			ghttpServer.RouteToHandler(http.MethodPost, regexp.MustCompile(`.*`), server.ServeHTTP)
		})

		It("reports report generation as unavailable", func() {
			resp := doJSON(http.MethodPost, "/api/reports", map[string]any{"theme": "Italian", "days": 5})
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})

		It("reports scanning as unavailable", func() {
			resp := upload("/api/items/scan", "receipt.png", []byte("png-bytes"))
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})
	})
})
