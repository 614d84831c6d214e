package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"givechain/internal/chain"
	"givechain/internal/domain"
	"givechain/internal/middleware"
	"givechain/internal/providers/predict"
)

const (
	testCampaign = "0x1111111111111111111111111111111111111111"
	testWallet   = "0xabcdef0123456789abcdef0123456789abcdabcd"
)

type fakeDonorRepo struct {
	profiles map[string]*domain.DonorProfile
	upserted *domain.DonorProfile
}

func newFakeDonorRepo() *fakeDonorRepo {
	return &fakeDonorRepo{profiles: make(map[string]*domain.DonorProfile)}
}

func (f *fakeDonorRepo) Upsert(_ context.Context, p *domain.DonorProfile) (*domain.DonorProfile, error) {
	stored := *p
	stored.WalletAddress = strings.ToLower(p.WalletAddress)
	stored.CreatedAt = time.Now()
	f.profiles[stored.WalletAddress] = &stored
	f.upserted = &stored
	return &stored, nil
}

func (f *fakeDonorRepo) GetByWallet(_ context.Context, wallet string) (*domain.DonorProfile, error) {
	if p, ok := f.profiles[strings.ToLower(wallet)]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDonorRepo) List(_ context.Context, _ int) ([]domain.DonorProfile, error) {
	out := make([]domain.DonorProfile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	return out, nil
}

type fakeDonationRepo struct {
	created []domain.DonationIntent
	history []domain.DonationEvent
}

func (f *fakeDonationRepo) Create(_ context.Context, intent *domain.DonationIntent) error {
	f.created = append(f.created, *intent)
	return nil
}

func (f *fakeDonationRepo) ListByCampaign(_ context.Context, _ string, _ int) ([]domain.DonationIntent, error) {
	return f.created, nil
}

func (f *fakeDonationRepo) HistoryByCampaign(_ context.Context, _ string) ([]domain.DonationEvent, error) {
	return f.history, nil
}

type fakeAnalyticsRepo struct {
	counters map[string]int
	summary  *domain.AnalyticsDaily
}

func newFakeAnalyticsRepo() *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{counters: make(map[string]int)}
}

func (f *fakeAnalyticsRepo) IncrementCounters(_ context.Context, _ string, counters map[string]int) error {
	for k, v := range counters {
		f.counters[k] += v
	}
	return nil
}

func (f *fakeAnalyticsRepo) GetSummary(_ context.Context) (*domain.AnalyticsDaily, error) {
	if f.summary == nil {
		return nil, domain.ErrNotFound
	}
	return f.summary, nil
}

type fakeReader struct {
	campaign   *domain.Campaign
	milestones []domain.Milestone
	donors     []string
	err        error
}

func (f *fakeReader) CampaignDetails(context.Context, string) (*domain.Campaign, error) {
	return f.campaign, f.err
}

func (f *fakeReader) Milestones(context.Context, string) ([]domain.Milestone, error) {
	return f.milestones, f.err
}

func (f *fakeReader) AllDonors(context.Context, string) ([]string, error) {
	return f.donors, f.err
}

type fakeEnricher struct {
	rows []domain.EnrichedDonor
	err  error
}

func (f *fakeEnricher) Enrich(context.Context, string, []string) ([]domain.EnrichedDonor, error) {
	return f.rows, f.err
}

type fakeSubmitter struct {
	sub    chain.Submission
	err    error
	status chain.Submission
}

func (f *fakeSubmitter) Submit(context.Context, string, string, string) (chain.Submission, error) {
	return f.sub, f.err
}

func (f *fakeSubmitter) Status(string) chain.Submission {
	return f.status
}

type fakeForecaster struct {
	forecast *domain.Forecast
	err      error
	called   bool
}

func (f *fakeForecaster) Forecast(context.Context, predict.ForecastRequest) (*domain.Forecast, error) {
	f.called = true
	return f.forecast, f.err
}

type fakeResponder struct {
	reply string
}

func (f *fakeResponder) Reply(context.Context, string) (string, error) {
	return f.reply, nil
}

func ether(n int64) *big.Int {
	wei, _ := new(big.Int).SetString("1000000000000000000", 10)
	return wei.Mul(wei, big.NewInt(n))
}

func testApp() (*App, *fakeDonorRepo, *fakeDonationRepo, *fakeAnalyticsRepo) {
	donors := newFakeDonorRepo()
	donations := &fakeDonationRepo{}
	analytics := newFakeAnalyticsRepo()
	return &App{
		Logger:    zerolog.Nop(),
		JWTSecret: "test-secret",
		Donors:    donors,
		Donations: donations,
		Analytics: analytics,
	}, donors, donations, analytics
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(raw)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestDonorRegisterIssuesToken(t *testing.T) {
	app, _, _, analytics := testApp()

	req := httptest.NewRequest("POST", "/v1/donors", jsonBody(t, map[string]string{
		"walletAddress": testWallet,
		"name":          "Alice",
	}))
	rr := httptest.NewRecorder()
	app.DonorRegister(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Donor donorResponse `json:"donor"`
		Token string        `json:"token"`
	}
	decodeBody(t, rr, &resp)
	if resp.Token == "" {
		t.Fatal("no token issued")
	}
	claims, err := middleware.VerifyJWT("test-secret", resp.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Sub != testWallet {
		t.Fatalf("token sub = %q", claims.Sub)
	}
	if analytics.counters["donors_registered"] != 1 {
		t.Fatalf("donors_registered = %d", analytics.counters["donors_registered"])
	}
}

func TestDonorRegisterRejectsBadWallet(t *testing.T) {
	app, _, _, _ := testApp()
	req := httptest.NewRequest("POST", "/v1/donors", jsonBody(t, map[string]string{
		"walletAddress": "not-an-address",
		"name":          "Alice",
	}))
	rr := httptest.NewRecorder()
	app.DonorRegister(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestDonorByWalletReturnsBareProfile(t *testing.T) {
	app, donors, _, _ := testApp()
	if _, err := donors.Upsert(context.Background(), &domain.DonorProfile{
		WalletAddress: testWallet,
		Name:          "Alice",
		Avatar:        "https://example.com/a.png",
	}); err != nil {
		t.Fatalf("seed donor: %v", err)
	}

	req := httptest.NewRequest("GET", "/v1/donors/by-wallet?walletAddress="+testWallet, nil)
	rr := httptest.NewRecorder()
	app.DonorByWallet(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	decodeBody(t, rr, &resp)
	if resp["walletAddress"] != testWallet {
		t.Fatalf("top-level walletAddress = %v, body %s", resp["walletAddress"], rr.Body.String())
	}
	for _, key := range []string{"name", "avatar", "createdAt"} {
		if _, ok := resp[key]; !ok {
			t.Fatalf("missing top-level %q, body %s", key, rr.Body.String())
		}
	}
}

func TestDonorListReturnsBareArray(t *testing.T) {
	app, donors, _, _ := testApp()
	if _, err := donors.Upsert(context.Background(), &domain.DonorProfile{
		WalletAddress: testWallet,
		Name:          "Alice",
	}); err != nil {
		t.Fatalf("seed donor: %v", err)
	}

	req := httptest.NewRequest("GET", "/v1/donors", nil)
	rr := httptest.NewRecorder()
	app.DonorList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp []map[string]any
	decodeBody(t, rr, &resp)
	if len(resp) != 1 {
		t.Fatalf("entries = %d, want 1", len(resp))
	}
	if resp[0]["walletAddress"] != testWallet || resp[0]["name"] != "Alice" {
		t.Fatalf("entry = %v", resp[0])
	}
	if len(resp[0]) != 2 {
		t.Fatalf("entry has %d fields, want walletAddress and name only: %v", len(resp[0]), resp[0])
	}
}

func TestDonorByWalletNotFound(t *testing.T) {
	app, _, _, _ := testApp()
	req := httptest.NewRequest("GET", "/v1/donors/by-wallet?walletAddress="+testWallet, nil)
	rr := httptest.NewRecorder()
	app.DonorByWallet(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestCampaignGetReportsMilestoneStatus(t *testing.T) {
	app, _, _, _ := testApp()
	app.Campaigns = &fakeReader{
		campaign: &domain.Campaign{
			Address:      testCampaign,
			Name:         "Clean Water",
			Goal:         ether(100),
			TotalDonated: ether(85),
			State:        domain.CampaignStateActive,
		},
		milestones: []domain.Milestone{
			{Target: ether(25), Reached: true, FundsReleased: true},
			{Target: ether(50), Reached: true, FundsReleased: true},
			{Target: ether(75), Reached: true},
			{Target: ether(100)},
		},
	}

	req := withURLParam(httptest.NewRequest("GET", "/v1/campaigns/"+testCampaign, nil), "address", testCampaign)
	rr := httptest.NewRecorder()
	app.CampaignGet(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp campaignResponse
	decodeBody(t, rr, &resp)
	if resp.ProgressPercent != 85 {
		t.Fatalf("progress = %d, want 85", resp.ProgressPercent)
	}
	wantStatus := []string{"Reached", "Reached", "Reached", "Pending"}
	for i, m := range resp.Milestones {
		if m.Status != wantStatus[i] {
			t.Fatalf("milestone %d status = %q, want %q", i, m.Status, wantStatus[i])
		}
	}
	if resp.TotalDonated != "85" {
		t.Fatalf("totalDonated = %q", resp.TotalDonated)
	}
}

func TestCampaignGetNotFound(t *testing.T) {
	app, _, _, _ := testApp()
	app.Campaigns = &fakeReader{err: domain.ErrNotFound}

	req := withURLParam(httptest.NewRequest("GET", "/v1/campaigns/"+testCampaign, nil), "address", testCampaign)
	rr := httptest.NewRecorder()
	app.CampaignGet(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestCampaignGetProviderUnavailable(t *testing.T) {
	app, _, _, _ := testApp()
	app.Campaigns = &fakeReader{err: domain.ErrProviderUnavailable}

	req := withURLParam(httptest.NewRequest("GET", "/v1/campaigns/"+testCampaign, nil), "address", testCampaign)
	rr := httptest.NewRecorder()
	app.CampaignGet(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestCampaignDonorsReturnsEnrichedRows(t *testing.T) {
	app, _, _, _ := testApp()
	app.Campaigns = &fakeReader{donors: []string{testWallet}}
	app.Enricher = &fakeEnricher{rows: []domain.EnrichedDonor{
		{Address: testWallet, DisplayName: "Alice", TotalDonated: ether(5), IsTopDonor: true},
	}}

	req := withURLParam(httptest.NewRequest("GET", "/v1/campaigns/"+testCampaign+"/donors", nil), "address", testCampaign)
	rr := httptest.NewRecorder()
	app.CampaignDonors(rr, req)

	var resp struct {
		Donors []enrichedDonorResponse `json:"donors"`
	}
	decodeBody(t, rr, &resp)
	if len(resp.Donors) != 1 || resp.Donors[0].DisplayName != "Alice" {
		t.Fatalf("donors = %+v", resp.Donors)
	}
	if resp.Donors[0].TotalDonated != "5" {
		t.Fatalf("totalDonated = %q", resp.Donors[0].TotalDonated)
	}
}

func donationRequest(t *testing.T, amount string) *http.Request {
	t.Helper()
	req := httptest.NewRequest("POST", "/v1/campaigns/"+testCampaign+"/donations", jsonBody(t, map[string]string{"amount": amount}))
	req = withURLParam(req, "address", testCampaign)
	return req.WithContext(middleware.ContextWithWallet(req.Context(), testWallet))
}

func TestDonationCreateConfirmed(t *testing.T) {
	app, _, donations, analytics := testApp()
	app.Submitter = &fakeSubmitter{sub: chain.Submission{
		State:     domain.SubmissionConfirmed,
		TxHash:    "0xdeadbeef",
		UpdatedAt: time.Now(),
	}}

	rr := httptest.NewRecorder()
	app.DonationCreate(rr, donationRequest(t, "1.5"))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
	var resp submissionResponse
	decodeBody(t, rr, &resp)
	if resp.Status != "confirmed" || resp.TxHash != "0xdeadbeef" {
		t.Fatalf("response = %+v", resp)
	}
	if len(donations.created) != 1 {
		t.Fatalf("intents recorded = %d, want 1", len(donations.created))
	}
	intent := donations.created[0]
	if intent.AmountWei != "1500000000000000000" {
		t.Fatalf("amountWei = %q", intent.AmountWei)
	}
	if intent.Outcome != domain.SubmissionConfirmed {
		t.Fatalf("outcome = %q", intent.Outcome)
	}
	if analytics.counters["donations_confirmed"] != 1 {
		t.Fatalf("counters = %v", analytics.counters)
	}
}

func TestDonationCreateRejectedIsNotAnError(t *testing.T) {
	app, _, donations, analytics := testApp()
	app.Submitter = &fakeSubmitter{sub: chain.Submission{State: domain.SubmissionRejected}}

	rr := httptest.NewRecorder()
	app.DonationCreate(rr, donationRequest(t, "1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp submissionResponse
	decodeBody(t, rr, &resp)
	if resp.Status != "rejected" {
		t.Fatalf("status = %q", resp.Status)
	}
	if !strings.Contains(resp.Message, "no funds") {
		t.Fatalf("message = %q", resp.Message)
	}
	if len(donations.created) != 1 || donations.created[0].Outcome != domain.SubmissionRejected {
		t.Fatalf("intents = %+v", donations.created)
	}
	if analytics.counters["donations_rejected"] != 1 {
		t.Fatalf("counters = %v", analytics.counters)
	}
}

func TestDonationCreateInFlightConflicts(t *testing.T) {
	app, _, donations, _ := testApp()
	app.Submitter = &fakeSubmitter{
		sub: chain.Submission{State: domain.SubmissionSubmitting},
		err: domain.ErrSubmissionInFlight,
	}

	rr := httptest.NewRecorder()
	app.DonationCreate(rr, donationRequest(t, "1"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
	if len(donations.created) != 0 {
		t.Fatal("in-flight conflict must not record an intent")
	}
}

func TestDonationCreateInvalidAmount(t *testing.T) {
	app, _, _, _ := testApp()
	app.Submitter = &fakeSubmitter{
		sub: chain.Submission{State: domain.SubmissionIdle},
		err: domain.ErrInvalidAmount,
	}

	rr := httptest.NewRecorder()
	app.DonationCreate(rr, donationRequest(t, "-5"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestDonationCreateFailedRecordsIntent(t *testing.T) {
	app, _, donations, analytics := testApp()
	app.Submitter = &fakeSubmitter{
		sub: chain.Submission{State: domain.SubmissionFailed, TxHash: "0xbad"},
		err: domain.ErrUpstreamFailure,
	}

	rr := httptest.NewRecorder()
	app.DonationCreate(rr, donationRequest(t, "1"))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	if len(donations.created) != 1 || donations.created[0].Outcome != domain.SubmissionFailed {
		t.Fatalf("intents = %+v", donations.created)
	}
	if analytics.counters["donations_failed"] != 1 {
		t.Fatalf("counters = %v", analytics.counters)
	}
}

func TestDonationCreateRequiresAuth(t *testing.T) {
	app, _, _, _ := testApp()
	app.Submitter = &fakeSubmitter{}

	req := httptest.NewRequest("POST", "/v1/campaigns/"+testCampaign+"/donations", jsonBody(t, map[string]string{"amount": "1"}))
	req = withURLParam(req, "address", testCampaign)
	rr := httptest.NewRecorder()
	app.DonationCreate(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestDonationStatusReportsIdleByDefault(t *testing.T) {
	app, _, _, _ := testApp()
	app.Submitter = &fakeSubmitter{status: chain.Submission{State: domain.SubmissionIdle}}

	req := httptest.NewRequest("GET", "/v1/campaigns/"+testCampaign+"/donations/status", nil)
	req = req.WithContext(middleware.ContextWithWallet(req.Context(), testWallet))
	rr := httptest.NewRecorder()
	app.DonationStatus(rr, req)

	var resp submissionResponse
	decodeBody(t, rr, &resp)
	if resp.Status != "idle" {
		t.Fatalf("status = %q, want idle", resp.Status)
	}
}

func TestPredictionCreateNoHistory(t *testing.T) {
	app, _, _, _ := testApp()
	app.Campaigns = &fakeReader{campaign: &domain.Campaign{
		Address: testCampaign, Name: "Clean Water", Goal: ether(100), TotalDonated: ether(10),
	}}
	forecaster := &fakeForecaster{}
	app.Forecaster = forecaster

	req := httptest.NewRequest("POST", "/v1/predictions", jsonBody(t, map[string]any{
		"campaignAddress": testCampaign,
		"daysToPredict":   30,
	}))
	rr := httptest.NewRecorder()
	app.PredictionCreate(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	if forecaster.called {
		t.Fatal("forecaster called for a campaign with no history")
	}
}

func TestPredictionCreateRejectsZeroDays(t *testing.T) {
	app, _, _, _ := testApp()
	forecaster := &fakeForecaster{}
	app.Forecaster = forecaster

	req := httptest.NewRequest("POST", "/v1/predictions", jsonBody(t, map[string]any{
		"campaignAddress": testCampaign,
		"daysToPredict":   0,
	}))
	rr := httptest.NewRecorder()
	app.PredictionCreate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if forecaster.called {
		t.Fatal("forecaster called for a zero horizon")
	}
}

func TestPredictionCreateSuccess(t *testing.T) {
	app, _, donations, analytics := testApp()
	app.Campaigns = &fakeReader{campaign: &domain.Campaign{
		Address: testCampaign, Name: "Clean Water", Goal: ether(100), TotalDonated: ether(10),
	}}
	donations.history = []domain.DonationEvent{{Date: time.Now().AddDate(0, 0, -3), Amount: 10}}
	app.Forecaster = &fakeForecaster{forecast: &domain.Forecast{
		Points:          []domain.PredictionPoint{{Amount: 10}, {Amount: 12, IsProjected: true}},
		ConfidenceScore: 70,
	}}

	req := httptest.NewRequest("POST", "/v1/predictions", jsonBody(t, map[string]any{
		"campaignAddress": testCampaign,
		"daysToPredict":   14,
	}))
	rr := httptest.NewRecorder()
	app.PredictionCreate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Status string          `json:"status"`
		Data   domain.Forecast `json:"data"`
	}
	decodeBody(t, rr, &resp)
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
	if len(resp.Data.Points) != 2 || resp.Data.ConfidenceScore != 70 {
		t.Fatalf("data = %+v", resp.Data)
	}
	if analytics.counters["predictions_served"] != 1 {
		t.Fatalf("counters = %v", analytics.counters)
	}
}

func TestChatRequiresQuery(t *testing.T) {
	app, _, _, _ := testApp()
	app.Responder = &fakeResponder{reply: "hello"}

	req := httptest.NewRequest("POST", "/v1/chat", jsonBody(t, map[string]string{"query": "  "}))
	rr := httptest.NewRecorder()
	app.Chat(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestChatReturnsReply(t *testing.T) {
	app, _, _, analytics := testApp()
	app.Responder = &fakeResponder{reply: "To donate, open a campaign page."}

	req := httptest.NewRequest("POST", "/v1/chat", jsonBody(t, map[string]string{"query": "how do I donate?"}))
	rr := httptest.NewRecorder()
	app.Chat(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp map[string]string
	decodeBody(t, rr, &resp)
	if !strings.Contains(resp["response"], "donate") {
		t.Fatalf("response = %q", resp["response"])
	}
	if analytics.counters["chat_messages"] != 1 {
		t.Fatalf("counters = %v", analytics.counters)
	}
}

func TestStatsSummaryEmptyPlatform(t *testing.T) {
	app, _, _, _ := testApp()

	req := httptest.NewRequest("GET", "/v1/stats/summary", nil)
	rr := httptest.NewRecorder()
	app.StatsSummary(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp statsResponse
	decodeBody(t, rr, &resp)
	if resp.DonationsSubmitted != 0 || resp.Day == "" {
		t.Fatalf("response = %+v", resp)
	}
}
