package listing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCaptionEscapesAndCounts(t *testing.T) {
	l := Listing{
		Model:     "Camry <XV70>",
		Price:     15000,
		Condition: "Yangi",
		Mileage:   1200,
		Region:    "Toshkent",
		Phone:     "+998901234567",
		Handle:    "seller",
		Photos:    []string{"a", "b"},
	}
	c := Caption(l)
	require.Contains(t, c, "🚗 <b>Camry &lt;XV70&gt;</b>")
	require.Contains(t, c, "💰 Narx: <b>15000$</b>")
	require.Contains(t, c, "🔧 Uzatma: —")
	require.Contains(t, c, "👤 Telegram: @seller")
	require.True(t, strings.HasSuffix(c, "📷 Rasmlar soni: 2"))
}

func TestCaptionWithoutHandle(t *testing.T) {
	c := Caption(Listing{})
	require.NotContains(t, c, "Telegram:")
	require.Contains(t, c, "Noma’lum")
}

func TestSoldCaption(t *testing.T) {
	l := Listing{Model: "Nexia"}
	sold := SoldCaption(l)
	require.True(t, strings.HasSuffix(sold, "✅ <b>SOTILDI</b>"))
	require.Equal(t, Caption(l)+"\n\n✅ <b>SOTILDI</b>", sold)
}

func TestKeywordsFold(t *testing.T) {
	k := NewKeywords("Bekor", "/cancel")
	require.True(t, k.Match("  BEKOR "))
	require.True(t, k.Match("/Cancel"))
	require.False(t, k.Match("bekorchi"))
}

func TestParseAmount(t *testing.T) {
	n, ok := ParseAmount(" 15000 ")
	require.True(t, ok)
	require.EqualValues(t, 15000, n)

	for _, bad := range []string{"", "-5", "1.5", "12a", "١٢", "9999999999999999999"} {
		_, ok := ParseAmount(bad)
		require.False(t, ok, bad)
	}
}

func TestDraftCloneIsIndependent(t *testing.T) {
	d := Draft{Photos: []string{"a"}}
	c := d.Clone()
	c.Photos[0] = "b"
	require.Equal(t, "a", d.Photos[0])
	require.Equal(t, StatusActive, d.Listing().Status)
}
