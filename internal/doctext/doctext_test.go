package doctext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"plain text", "An order placed by a customer.", "An order placed by a customer."},
		{"html paragraphs", "<html><body><p>First  line</p><p>Second <b>bold</b></p></body></html>", "First line\nSecond bold"},
		{"html break", "one<br>two", "one\ntwo"},
		{"html list", "<ul><li>alpha</li><li>beta</li></ul>", "- alpha\n- beta"},
		{"html entities", "<p>a &amp; b</p>", "a & b"},
		{"markdown emphasis", "Holds the **total** of an *order*.", "Holds the total of an order."},
		{"markdown paragraphs", "# Title\n\nBody text\nwrapped.", "Title\nBody text wrapped."},
		{"markdown list", "- one\n- two", "- one\n- two"},
		{"markdown link", "See [spec](http://example.com).", "See spec."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plain(tt.in))
		})
	}
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("<p>x</p>"))
	assert.True(t, IsHTML("line<br/>break"))
	assert.False(t, IsHTML("a < b and c > d"))
	assert.False(t, IsHTML("List<Order>"))
}
