package usecase

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/xerrors"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
)

type WebResourceUseCaseCfg struct {
	HttpReader    domain.WebResourceReaderRepository
	DataUriReader domain.WebResourceReaderRepository
	// IpfsGateways are tried in order until one succeeds
	IpfsGateways []string
	ArGateways   []string
	// TimeoutBase is the timeout of the first candidate, each later candidate
	// gets TimeoutStep more
	TimeoutBase time.Duration
	TimeoutStep time.Duration
}

type webResourceUseCase struct {
	httpReader    domain.WebResourceReaderRepository
	dataUriReader domain.WebResourceReaderRepository
	ipfsGateways  []string
	arGateways    []string
	timeoutBase   time.Duration
	timeoutStep   time.Duration
}

func NewWebResourceUseCase(cfg *WebResourceUseCaseCfg) domain.WebResourceUseCase {
	u := &webResourceUseCase{
		httpReader:    cfg.HttpReader,
		dataUriReader: cfg.DataUriReader,
		ipfsGateways:  cfg.IpfsGateways,
		arGateways:    cfg.ArGateways,
		timeoutBase:   cfg.TimeoutBase,
		timeoutStep:   cfg.TimeoutStep,
	}
	if u.timeoutBase == 0 {
		u.timeoutBase = 10 * time.Second
	}
	if u.timeoutStep == 0 {
		u.timeoutStep = 5 * time.Second
	}
	return u
}

func (u *webResourceUseCase) Get(c bCtx.Ctx, rawUrl string) ([]byte, error) {
	return u.get(c, rawUrl)
}

func (u *webResourceUseCase) GetJson(c bCtx.Ctx, rawUrl string) ([]byte, error) {
	data, err := u.get(c, rawUrl)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		c.WithFields(log.Fields{
			"url": rawUrl,
		}).Error("invalid json")
		return nil, domain.ErrInvalidJsonFormat
	}

	return data, nil
}

func (u *webResourceUseCase) get(c bCtx.Ctx, rawUrl string) ([]byte, error) {
	pUrl, err := url.Parse(rawUrl)
	if err != nil {
		c.WithFields(log.Fields{
			"url": rawUrl,
			"err": err,
		}).Error("failed to parse url")
		return nil, err
	}

	switch pUrl.Scheme {
	case "data":
		return u.dataUriReader.Get(c, rawUrl, 0)
	case "ipfs":
		cid := strings.TrimPrefix(rawUrl, "ipfs://")
		cid = strings.TrimPrefix(cid, "ipfs/") // early foundation's metadata bug
		return u.getCascading(c, gatewayUrls(u.ipfsGateways, cid))
	case "ar":
		txid := strings.TrimPrefix(rawUrl, "ar://")
		return u.getCascading(c, gatewayUrls(u.arGateways, txid))
	case "http", "https":
		data, err := u.getCascading(c, []string{rawUrl})
		if err == nil {
			return data, nil
		}
		// public ipfs gateway urls get a second chance through our own
		// gateway list
		if ipfsUrl := getIpfsUrl(rawUrl); len(ipfsUrl) > 0 {
			c.WithFields(log.Fields{
				"url":     rawUrl,
				"ipfsUrl": ipfsUrl,
			}).Info("falling back to ipfs")
			return u.get(c, ipfsUrl)
		}
		return nil, err
	default:
		return nil, domain.ErrUnsupportedSchema
	}
}

// getCascading walks the candidate list in order. Every failure moves on to
// the next candidate with a longer timeout; a rate limited candidate is
// skipped without consuming extra wait time. The first success wins.
func (u *webResourceUseCase) getCascading(c bCtx.Ctx, candidates []string) ([]byte, error) {
	if len(candidates) == 0 {
		return nil, xerrors.New("no fetch candidates configured")
	}
	var lastErr error
	for i, candidate := range candidates {
		timeout := u.timeoutBase + time.Duration(i)*u.timeoutStep
		data, err := u.httpReader.Get(c, candidate, timeout)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if xerrors.Is(err, domain.ErrRateLimited) {
			c.WithField("candidate", candidate).Warn("candidate rate limited, moving on")
			continue
		}
		c.WithFields(log.Fields{
			"candidate": candidate,
			"timeout":   timeout.String(),
			"err":       err,
		}).Warn("candidate failed")
	}
	return nil, xerrors.Errorf("all %d candidates failed: %w", len(candidates), lastErr)
}

func gatewayUrls(gateways []string, suffix string) []string {
	urls := make([]string, 0, len(gateways))
	for _, g := range gateways {
		urls = append(urls, fmt.Sprintf("%s/%s", strings.TrimSuffix(g, "/"), suffix))
	}
	return urls
}

func getIpfsUrl(url string) string {
	var (
		pinataPrefix     = "https://gateway.pinata.cloud/ipfs/"
		ipfsIoPrefix     = "https://ipfs.io/ipfs/"
		cloudflarePrefix = "https://cloudflare-ipfs.com/ipfs/"
		foundationPrefix = "https://ipfs.foundation.app/ipfs/"
		ipfsPrefix       = "ipfs://"
	)

	fixedPrefix := []string{pinataPrefix, ipfsIoPrefix, cloudflarePrefix, foundationPrefix}
	for _, p := range fixedPrefix {
		if strings.HasPrefix(url, p) {
			return strings.Replace(url, p, ipfsPrefix, 1)
		}
	}
	dedicatedPinataRegex := regexp.MustCompile(`^https://.*.mypinata.cloud/ipfs/`)
	if dedicatedPinataRegex.Match([]byte(url)) {
		return dedicatedPinataRegex.ReplaceAllLiteralString(url, ipfsPrefix)
	}
	return ""
}
