package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/xerrors"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/validator"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/domain/token"
	tokenMocks "github.com/coinacci/travelmint-api/domain/token/mocks"
)

type stubScanner struct {
	caughtUp bool
	found    int
}

func (s *stubScanner) ScanRange(c bCtx.Ctx, start, end uint64) (int, error) {
	return s.found, nil
}

func (s *stubScanner) CatchUp(c bCtx.Ctx) error {
	s.caughtUp = true
	return nil
}

type stubPurchase struct {
	details *domain.PurchaseDetails
	err     error
}

func (s *stubPurchase) VerifyPurchase(c bCtx.Ctx, txHash domain.TxHash, tokenId domain.TokenId, buyer domain.Address) (*domain.PurchaseDetails, error) {
	return s.details, s.err
}

type handlerSuite struct {
	suite.Suite

	echo     *echo.Echo
	tokenUC  *tokenMocks.UseCase
	scanner  *stubScanner
	purchase *stubPurchase
}

func (s *handlerSuite) SetupTest() {
	s.echo = echo.New()
	s.echo.Validator = validator.NewCustomValidator(goValidator.New())
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("ctx", bCtx.Background())
			return next(c)
		}
	})
	s.tokenUC = &tokenMocks.UseCase{}
	s.scanner = &stubScanner{}
	s.purchase = &stubPurchase{}
	New(s.echo, s.tokenUC, s.scanner, s.purchase,
		domain.ChainId(8453), domain.Address("0x5c0f1dcbcc14ad83d8eb4d849167b1f24f92cfab"))
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(handlerSuite))
}

func (s *handlerSuite) request(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *handlerSuite) TestGetTokens() {
	s.tokenUC.On("FindAll", mock.Anything, mock.Anything, mock.Anything).
		Return([]*token.Token{{TokenId: "1"}, {TokenId: "2"}}, nil)
	s.tokenUC.On("Count", mock.Anything, mock.Anything, mock.Anything).Return(2, nil)

	rec := s.request(http.MethodGet, "/tokens?owner=0xabc1", "")
	s.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Items []*token.Token `json:"items"`
			Count int            `json:"count"`
		} `json:"data"`
		Status string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("success", resp.Status)
	s.Len(resp.Data.Items, 2)
	s.Equal(2, resp.Data.Count)
}

func (s *handlerSuite) TestGetTokenNotFound() {
	s.tokenUC.On("FindOne", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	rec := s.request(http.MethodGet, "/tokens/42", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *handlerSuite) TestSyncRunsCatchUpAndScan() {
	s.scanner.found = 3

	rec := s.request(http.MethodPost, "/tokens/sync", `{"startId":1,"endId":50}`)
	s.Equal(http.StatusOK, rec.Code)
	s.True(s.scanner.caughtUp)
	s.Contains(rec.Body.String(), `"tokensFound":3`)
}

func (s *handlerSuite) TestVerifyPurchaseRejectionIsTyped() {
	s.purchase.err = domain.NewVerificationError(domain.VerifyReasonWrongFunction,
		"transaction calls listNFT, expected purchaseNFT")

	body := `{"txHash":"0xbeef","tokenId":"42","buyer":"0xabc1"}`
	rec := s.request(http.MethodPost, "/purchases/verify", body)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Contains(rec.Body.String(), "wrong_function")
	s.Contains(rec.Body.String(), "listNFT")
}

func (s *handlerSuite) TestVerifyPurchaseMissingFields() {
	rec := s.request(http.MethodPost, "/purchases/verify", `{"tokenId":"42"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *handlerSuite) TestVerifyPurchaseInfrastructureFailure() {
	s.purchase.err = xerrors.New("rpc down")

	body := `{"txHash":"0xbeef","tokenId":"42","buyer":"0xabc1"}`
	rec := s.request(http.MethodPost, "/purchases/verify", body)
	s.Equal(http.StatusInternalServerError, rec.Code)
}
