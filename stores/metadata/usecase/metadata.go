package usecase

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
)

// locationOverride pins the location of historically mislabeled tokens. It is
// applied before any extraction heuristic and wins over whatever the metadata
// document says.
type locationOverride struct {
	Location  string
	Latitude  float64
	Longitude float64
}

var locationOverrides = map[domain.TokenId]locationOverride{
	"7":  {Location: "Istanbul, Turkey", Latitude: 41.008238, Longitude: 28.978359},
	"12": {Location: "Cappadocia, Turkey", Latitude: 38.643056, Longitude: 34.828889},
	"15": {Location: "Pamukkale, Turkey", Latitude: 37.920000, Longitude: 29.120000},
}

type rawAttribute struct {
	TraitType string          `json:"trait_type"`
	Value     json.RawMessage `json:"value"`
}

type rawMetadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Category    string         `json:"category"`
	Location    string         `json:"location"`
	Latitude    json.RawMessage `json:"latitude"`
	Longitude   json.RawMessage `json:"longitude"`
	Attributes  []rawAttribute `json:"attributes"`
}

type MetadataUseCaseCfg struct {
	WebResource domain.WebResourceUseCase
}

type metadataUseCase struct {
	webResource domain.WebResourceUseCase
}

func NewMetadataUseCase(cfg *MetadataUseCaseCfg) domain.MetadataUseCase {
	return &metadataUseCase{webResource: cfg.WebResource}
}

func (u *metadataUseCase) Resolve(c bCtx.Ctx, tokenId domain.TokenId, tokenUri string) (*domain.NormalizedMetadata, error) {
	raw, err := u.webResource.GetJson(c, tokenUri)
	if err != nil {
		c.WithFields(log.Fields{
			"tokenId":  tokenId,
			"tokenUri": tokenUri,
			"err":      err,
		}).Error("webResource.GetJson failed")
		return nil, err
	}
	return u.Parse(c, tokenId, tokenUri, raw)
}

func (u *metadataUseCase) Parse(c bCtx.Ctx, tokenId domain.TokenId, tokenUri string, raw []byte) (*domain.NormalizedMetadata, error) {
	var parsed rawMetadata
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.WithFields(log.Fields{
			"tokenId": tokenId,
			"err":     err,
		}).Error("metadata unmarshal failed")
		return nil, domain.ErrInvalidJsonFormat
	}

	res := &domain.NormalizedMetadata{
		Name:        strings.TrimSpace(parsed.Name),
		Description: strings.TrimSpace(parsed.Description),
		Category:    strings.TrimSpace(parsed.Category),
		Location:    strings.TrimSpace(parsed.Location),
		Raw:         raw,
	}

	res.ImageUrl = u.resolveImage(c, parsed.Image, tokenUri)

	if o, ok := locationOverrides[tokenId]; ok {
		lat, lng := o.Latitude, o.Longitude
		res.Location = o.Location
		res.Latitude = &lat
		res.Longitude = &lng
		return res, nil
	}

	res.Latitude = parseCoordinate(rawString(parsed.Latitude))
	res.Longitude = parseCoordinate(rawString(parsed.Longitude))
	u.extractFromAttributes(res, parsed.Attributes)

	// a half pair is as useless as none
	if res.Latitude == nil || res.Longitude == nil {
		res.Latitude = nil
		res.Longitude = nil
	}
	return res, nil
}

// extractFromAttributes scans the attribute list for location traits. The
// first unambiguous match per field wins.
func (u *metadataUseCase) extractFromAttributes(res *domain.NormalizedMetadata, attributes []rawAttribute) {
	for _, attr := range attributes {
		name := strings.ToLower(strings.TrimSpace(attr.TraitType))
		value := rawString(attr.Value)
		switch name {
		case "location", "city", "place":
			if res.Location == "" {
				res.Location = strings.TrimSpace(value)
			}
		case "category":
			if res.Category == "" {
				res.Category = strings.TrimSpace(value)
			}
		case "latitude", "lat":
			if res.Latitude == nil {
				res.Latitude = parseCoordinate(value)
			}
		case "longitude", "lng", "lon", "long":
			if res.Longitude == nil {
				res.Longitude = parseCoordinate(value)
			}
		case "coordinates", "coords", "gps":
			if res.Latitude == nil && res.Longitude == nil {
				res.Latitude, res.Longitude = parseCoordinatePair(value)
			}
		}
	}
}

// resolveImage prefers the explicit image field. A token uri that itself
// points at a JSON document gets one extra fetch to pull the image out of it;
// anything else is treated as the image.
func (u *metadataUseCase) resolveImage(c bCtx.Ctx, image, tokenUri string) string {
	image = strings.TrimSpace(image)
	if image != "" {
		return image
	}
	if !looksLikeJsonDoc(tokenUri) {
		return tokenUri
	}
	raw, err := u.webResource.GetJson(c, tokenUri)
	if err != nil {
		c.WithFields(log.Fields{
			"tokenUri": tokenUri,
			"err":      err,
		}).Warn("image document fetch failed")
		return ""
	}
	var doc struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Image)
}

func looksLikeJsonDoc(rawUrl string) bool {
	pUrl, err := url.Parse(rawUrl)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(pUrl.Path))
	if ext == ".json" {
		return true
	}
	return strings.Contains(strings.ToLower(pUrl.Path), "/metadata/")
}

// rawString decodes a json value that may be a string or a number
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// parseCoordinate strips everything but sign, digits, dot and comma, then
// parses. An exact zero is reported as absent since no token in this domain
// sits on the null island.
func parseCoordinate(s string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '+' || r == '.':
			return r
		case r == ',':
			return '.'
		default:
			return -1
		}
	}, strings.TrimSpace(s))
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	if v == 0 {
		return nil
	}
	return &v
}

// parseCoordinatePair splits a combined "lat, lng" string
func parseCoordinatePair(s string) (*float64, *float64) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, nil
	}
	lat := parseCoordinate(parts[0])
	lng := parseCoordinate(parts[1])
	if lat == nil || lng == nil {
		return nil, nil
	}
	return lat, lng
}
