package uaparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const chromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
const iphoneSafariUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1"
const googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

func TestParseUA_IsPure(t *testing.T) {
	p := New()
	a := p.ParseUA(chromeWindowsUA)
	b := p.ParseUA(chromeWindowsUA)
	assert.Equal(t, a, b)
}

func TestParseUA_DesktopChrome(t *testing.T) {
	p := New()
	r := p.ParseUA(chromeWindowsUA)
	assert.Equal(t, "desktop", string(r.DeviceType))
	assert.False(t, r.IsBot)
}

func TestParseUA_MobileIphone(t *testing.T) {
	p := New()
	r := p.ParseUA(iphoneSafariUA)
	assert.Equal(t, "mobile", string(r.DeviceType))
}

func TestParseUA_Bot(t *testing.T) {
	p := New()
	r := p.ParseUA(googlebotUA)
	assert.True(t, r.IsBot)
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "example.com", ExtractDomain("https://example.com/path?x=1"))
	assert.Equal(t, "example.com", ExtractDomain("http://example.com"))
	assert.Equal(t, "", ExtractDomain(""))
}
