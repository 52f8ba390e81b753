package orchestrator_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"schoolcal/internal/cache"
	"schoolcal/internal/fingerprint"
	"schoolcal/internal/model"
	"schoolcal/internal/orchestrator"
	"schoolcal/internal/orchestrator/mocks"
	"schoolcal/internal/signature"
	"schoolcal/internal/source"
)

const portalURL = "https://engage.lis.school/portal/news/"

var portalText = "Dear parents, " + strings.Repeat("the autumn break runs from 2025-10-20 to 2025-10-31. ", 3)

type fixture struct {
	portal    *mocks.MockPortalReader
	fetcher   *mocks.MockDocumentFetcher
	pdf       *mocks.MockPDFTextReader
	extractor *mocks.MockExtractor
	store     *cache.Store
	o         *orchestrator.Orchestrator
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	f := fixture{
		portal:    mocks.NewMockPortalReader(ctrl),
		fetcher:   mocks.NewMockDocumentFetcher(ctrl),
		pdf:       mocks.NewMockPDFTextReader(ctrl),
		extractor: mocks.NewMockExtractor(ctrl),
		store:     cache.New(),
	}
	f.o = orchestrator.New(f.portal, f.fetcher, f.pdf, f.extractor, f.store, []string{"engage.lis.school"})
	return f
}

func TestScan_PortalMissThenHit(t *testing.T) {
	f := newFixture(t)
	events := []model.EventRecord{{Title: "Break", Date: "2025-10-20 to 2025-10-31"}}

	f.portal.EXPECT().PortalText(gomock.Any(), portalURL).Return(portalText, nil).Times(2)
	f.extractor.EXPECT().Extract(gomock.Any(), portalText).Return(events, nil).Times(1)

	first, err := f.o.Scan(context.Background(), portalURL, false)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, fingerprint.VariantPortal, first.Variant)
	assert.Equal(t, events, first.Events)
	assert.Equal(t,
		fingerprint.Build(portalURL, fingerprint.VariantPortal, signature.PortalSignature(portalURL, portalText)),
		first.Fingerprint)

	second, err := f.o.Scan(context.Background(), portalURL, false)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, events, second.Events)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestScan_ForceFreshReextracts(t *testing.T) {
	f := newFixture(t)

	f.portal.EXPECT().PortalText(gomock.Any(), portalURL).Return(portalText, nil).Times(2)
	gomock.InOrder(
		f.extractor.EXPECT().Extract(gomock.Any(), portalText).Return([]model.EventRecord{{Title: "old"}}, nil),
		f.extractor.EXPECT().Extract(gomock.Any(), portalText).Return([]model.EventRecord{{Title: "new"}}, nil),
	)

	_, err := f.o.Scan(context.Background(), portalURL, false)
	require.NoError(t, err)

	res, err := f.o.Scan(context.Background(), portalURL, true)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "new", res.Events[0].Title)

	cached, ok := f.store.Get(res.Fingerprint)
	require.True(t, ok)
	assert.Equal(t, "new", cached.Events[0].Title)
}

func TestScan_PDFFallbackParsesOnlyOnMiss(t *testing.T) {
	f := newFixture(t)
	pdfURL := "https://engage.lis.school/docs//term.pdf"
	header := http.Header{}
	header.Set("ETag", `"v1"`)
	doc := source.Document{URL: pdfURL, Body: []byte("%PDF"), Header: header}

	f.portal.EXPECT().PortalText(gomock.Any(), pdfURL).Return("short", nil).Times(2)
	f.fetcher.EXPECT().Fetch(gomock.Any(), pdfURL).Return(doc, nil).Times(2)
	f.pdf.EXPECT().Text([]byte("%PDF")).Return("\n--- Page 1 ---\nSports day 3rd September 2025", nil).Times(1)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return([]model.EventRecord{{Title: "Sports day", Date: "3rd September 2025"}}, nil).Times(1)

	res, err := f.o.Scan(context.Background(), pdfURL, false)
	require.NoError(t, err)
	assert.Equal(t, fingerprint.VariantPDF, res.Variant)
	assert.True(t, strings.HasPrefix(res.Fingerprint, "https://engage.lis.school/docs/term.pdf|pdf|"))

	res, err = f.o.Scan(context.Background(), pdfURL, false)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Contains(t, res.Text, "Sports day")
}

func TestScan_PortalErrorFallsBackToPDF(t *testing.T) {
	f := newFixture(t)

	f.portal.EXPECT().PortalText(gomock.Any(), portalURL).Return("", errors.New("chrome missing"))
	f.fetcher.EXPECT().Fetch(gomock.Any(), portalURL).Return(source.Document{Body: []byte("x"), Header: http.Header{}}, nil)
	f.pdf.EXPECT().Text(gomock.Any()).Return("text", nil)
	f.extractor.EXPECT().Extract(gomock.Any(), "text").Return(nil, nil)

	res, err := f.o.Scan(context.Background(), portalURL, false)
	require.NoError(t, err)
	assert.Equal(t, fingerprint.VariantPDF, res.Variant)
	assert.NotNil(t, res.Events)
	assert.Empty(t, res.Events)
}

func TestScan_ExtractionFailureIsNotCached(t *testing.T) {
	f := newFixture(t)

	f.portal.EXPECT().PortalText(gomock.Any(), portalURL).Return(portalText, nil).Times(2)
	f.extractor.EXPECT().Extract(gomock.Any(), portalText).Return(nil, errors.New("503")).Times(2)

	res, err := f.o.Scan(context.Background(), portalURL, false)
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Equal(t, 0, f.store.Len())

	_, err = f.o.Scan(context.Background(), portalURL, false)
	require.NoError(t, err)
}

func TestScan_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.o.Scan(context.Background(), "https://example.com/a.pdf", false)
	assert.True(t, errors.Is(err, orchestrator.ErrUnsupportedHost))

	f.portal.EXPECT().PortalText(gomock.Any(), portalURL).Return("", nil)
	f.fetcher.EXPECT().Fetch(gomock.Any(), portalURL).Return(source.Document{}, errors.New("404"))
	_, err = f.o.Scan(context.Background(), portalURL, false)
	assert.Error(t, err)

	f.portal.EXPECT().PortalText(gomock.Any(), portalURL).Return("", nil)
	f.fetcher.EXPECT().Fetch(gomock.Any(), portalURL).Return(source.Document{Body: []byte("x"), Header: http.Header{}}, nil)
	f.pdf.EXPECT().Text(gomock.Any()).Return("", errors.New("bad xref"))
	_, err = f.o.Scan(context.Background(), portalURL, false)
	assert.Error(t, err)
}

func TestScan_NoAllowListAcceptsAnyHost(t *testing.T) {
	ctrl := gomock.NewController(t)
	ext := mocks.NewMockExtractor(ctrl)
	fetcher := mocks.NewMockDocumentFetcher(ctrl)
	pdf := mocks.NewMockPDFTextReader(ctrl)

	fetcher.EXPECT().Fetch(gomock.Any(), "https://example.com/a.pdf").Return(source.Document{Body: []byte("x"), Header: http.Header{}}, nil)
	pdf.EXPECT().Text(gomock.Any()).Return("t", nil)
	ext.EXPECT().Extract(gomock.Any(), "t").Return([]model.EventRecord{}, nil)

	o := orchestrator.New(nil, fetcher, pdf, ext, cache.New(), nil)
	_, err := o.Scan(context.Background(), "https://example.com/a.pdf", false)
	require.NoError(t, err)
}
