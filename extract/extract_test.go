package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing_combiner/feed"
)

func mustParse(t *testing.T, doc string) *feed.Node {
	t.Helper()
	n, err := feed.Parse([]byte(doc))
	require.NoError(t, err)
	return n
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestExtraField(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		key  string
		want string
	}{
		{
			name: "single pair",
			doc:  `<r><extraFields name="streetAddress" value="North facing"/></r>`,
			key:  "streetAddress",
			want: "North facing",
		},
		{
			name: "repeated pairs",
			doc: `<r>
				<extraFields name="zoning" value="R2"/>
				<extraFields name="streetAddress" value="East"/>
			</r>`,
			key:  "streetAddress",
			want: "East",
		},
		{
			name: "nested eField pairs",
			doc: `<r><extraFields>
				<eField name="zoning" value="R2"/>
				<eField name="streetAddress" value="West"/>
			</extraFields></r>`,
			key:  "streetAddress",
			want: "West",
		},
		{
			name: "key missing",
			doc:  `<r><extraFields name="zoning" value="R2"/></r>`,
			key:  "streetAddress",
			want: "<nil>",
		},
		{
			name: "empty value",
			doc:  `<r><extraFields name="streetAddress" value=""/></r>`,
			key:  "streetAddress",
			want: "<nil>",
		},
		{
			name: "collection absent",
			doc:  `<r/>`,
			key:  "streetAddress",
			want: "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustParse(t, tt.doc)
			assert.Equal(t, tt.want, deref(ExtraField(r.Field("extraFields"), tt.key)))
		})
	}
}

func TestPhone(t *testing.T) {
	a := mustParse(t, `<listingAgent>
		<telephone type="BH">02 9000 0000</telephone>
		<telephone type="mobile">0400 000 000</telephone>
		<telephone type="mobile">0411 111 111</telephone>
	</listingAgent>`)

	assert.Equal(t, "0400 000 000", deref(Phone(a.Field("telephone"), "mobile")))
	assert.Equal(t, "02 9000 0000", deref(Phone(a.Field("telephone"), "BH")))
	assert.Nil(t, Phone(a.Field("telephone"), "fax"))
	assert.Nil(t, Phone(a.Field("missing"), "mobile"))

	single := mustParse(t, `<listingAgent><telephone type="BH">1300</telephone></listingAgent>`)
	assert.Equal(t, "1300", deref(Phone(single.Field("telephone"), "BH")))

	untyped := mustParse(t, `<listingAgent><telephone>1300</telephone></listingAgent>`)
	assert.Nil(t, Phone(untyped.Field("telephone"), "BH"))
}

func TestAgent(t *testing.T) {
	t.Run("empty collection yields all nil", func(t *testing.T) {
		r := mustParse(t, `<r/>`)
		agent := Agent(r.Field("listingAgent"), nil)
		assert.Nil(t, agent.Name)
		assert.Nil(t, agent.Email)
		assert.Nil(t, agent.Phone)
		assert.Nil(t, agent.Photo)
	})

	t.Run("skips agents without contact details", func(t *testing.T) {
		r := mustParse(t, `<r>
			<listingAgent id="1"><name></name></listingAgent>
			<listingAgent id="2">
				<name>Sam Lee</name>
				<telephone type="BH">02 9111 1111</telephone>
				<photo>https://cdn.example.com/sam.jpg</photo>
			</listingAgent>
		</r>`)
		agent := Agent(r.Field("listingAgent"), nil)
		assert.Equal(t, "Sam Lee", deref(agent.Name))
		assert.Nil(t, agent.Email)
		assert.Equal(t, "02 9111 1111", deref(agent.Phone))
		assert.Equal(t, "https://cdn.example.com/sam.jpg", deref(agent.Photo))
	})

	t.Run("mobile preferred over business hours", func(t *testing.T) {
		r := mustParse(t, `<r><listingAgent>
			<email>a@example.com</email>
			<telephone type="BH">02 9000 0000</telephone>
			<telephone type="mobile">0400 000 000</telephone>
		</listingAgent></r>`)
		agent := Agent(r.Field("listingAgent"), nil)
		assert.Nil(t, agent.Name)
		assert.Equal(t, "a@example.com", deref(agent.Email))
		assert.Equal(t, "0400 000 000", deref(agent.Phone))
	})

	t.Run("custom phone order", func(t *testing.T) {
		r := mustParse(t, `<r><listingAgent>
			<name>Kim</name>
			<telephone type="BH">02 9000 0000</telephone>
			<telephone type="mobile">0400 000 000</telephone>
		</listingAgent></r>`)
		agent := Agent(r.Field("listingAgent"), []string{"BH", "mobile"})
		assert.Equal(t, "02 9000 0000", deref(agent.Phone))
	})

	t.Run("telephone of unknown type counts as contact", func(t *testing.T) {
		r := mustParse(t, `<r><listingAgent><telephone type="fax">02 1</telephone></listingAgent></r>`)
		agent := Agent(r.Field("listingAgent"), nil)
		assert.Nil(t, agent.Name)
		assert.Nil(t, agent.Phone)
	})

	t.Run("photo as url attribute", func(t *testing.T) {
		r := mustParse(t, `<r><listingAgent><name>Jo</name><photo url="https://x/jo.png"/></listingAgent></r>`)
		agent := Agent(r.Field("listingAgent"), nil)
		assert.Equal(t, "https://x/jo.png", deref(agent.Photo))
	})
}

func TestFloorplan(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"single", `<objects><floorplan id="1" url="https://x/fp1.pdf"/></objects>`, "https://x/fp1.pdf"},
		{"first with url", `<objects><floorplan id="1"/><floorplan id="2" url="https://x/fp2.pdf"/></objects>`, "https://x/fp2.pdf"},
		{"single without url", `<objects><floorplan id="1"/></objects>`, "<nil>"},
		{"no floorplan", `<objects><img url="https://x/1.jpg"/></objects>`, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deref(Floorplan(mustParse(t, tt.doc))))
		})
	}

	assert.Nil(t, Floorplan(nil))
}

func TestGallery(t *testing.T) {
	objects := mustParse(t, `<objects>
		<img id="m" url="https://x/1.jpg"/>
		<floorplan url="https://x/fp.pdf"/>
		<img id="a"/>
		<img id="b" url="https://x/2.jpg"/>
	</objects>`)
	assert.Equal(t, []string{"https://x/1.jpg", "https://x/2.jpg"}, Gallery(objects))

	single := mustParse(t, `<objects><img url="https://x/only.jpg"/></objects>`)
	assert.Equal(t, []string{"https://x/only.jpg"}, Gallery(single))

	empty := Gallery(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
