package quant

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultDevOrigin is where the pricing backend listens during local development.
const DefaultDevOrigin = "http://127.0.0.1:5000"

// BaseResolver derives the base URL that commands are appended to from the
// location of the hosting page.
type BaseResolver interface {
	Base(page string) (string, error)
}

// PageBase uses the page URL as the base, unchanged.
type PageBase struct{}

func (PageBase) Base(page string) (string, error) {
	if page == "" {
		return "", errors.New("page url is empty")
	}
	return page, nil
}

// DevAwareBase sends requests to DevOrigin when the page is served from
// localhost. Otherwise the page URL is cut at the first '/' following its
// last '.', which strips the path after the host. When the last '.' is in
// the path (page.html) the page's scheme and host are used.
type DevAwareBase struct {
	DevOrigin string
}

func (d DevAwareBase) Base(page string) (string, error) {
	if strings.Contains(page, "localhost") {
		if d.DevOrigin == "" {
			return DefaultDevOrigin, nil
		}
		return d.DevOrigin, nil
	}
	if page == "" {
		return "", errors.New("page url is empty")
	}
	dot := strings.LastIndex(page, ".")
	if dot >= 0 {
		if slash := strings.Index(page[dot:], "/"); slash >= 0 {
			return page[:dot+slash], nil
		}
	}
	return origin(page)
}

func origin(page string) (string, error) {
	u, err := url.Parse(page)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("page url %q has no origin", page)
	}
	return u.Scheme + "://" + u.Host, nil
}

// FixedBase ignores the page and always returns Origin.
type FixedBase struct {
	Origin string
}

func (f FixedBase) Base(string) (string, error) {
	if f.Origin == "" {
		return "", errors.New("fixed origin is empty")
	}
	return f.Origin, nil
}

// Strategy names accepted by ParseStrategy.
const (
	StrategyPage  = "page"
	StrategyDev   = "dev"
	StrategyFixed = "fixed"
)

// ParseStrategy returns the resolver registered under name. origin is the
// dev origin for "dev" and the target for "fixed".
func ParseStrategy(name, origin string) (BaseResolver, error) {
	switch name {
	case StrategyPage, "":
		return PageBase{}, nil
	case StrategyDev:
		return DevAwareBase{DevOrigin: origin}, nil
	case StrategyFixed:
		return FixedBase{Origin: origin}, nil
	default:
		return nil, fmt.Errorf("unknown base strategy: %s", name)
	}
}
