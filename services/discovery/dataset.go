package discovery

// SampleCreator is one entry of the curated discovery dataset. The matcher
// runs against this fixed set until the creator index is large enough to
// search directly.
type SampleCreator struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Handle         string   `json:"handle"`
	Niche          string   `json:"niche"`
	Followers      int64    `json:"followers"`
	EngagementRate float64  `json:"engagementRate"`
	AvgViews       int64    `json:"avgViews"`
	Aesthetic      string   `json:"aesthetic"`
	RecentBrands   []string `json:"recentBrands"`
	BaseRate       float64  `json:"baseRate"`
}

var sampleCreators = []SampleCreator{
	{
		ID: 1, Name: "Emma Rodriguez", Handle: "@emmalifestyle",
		Niche: "lifestyle", Followers: 245_000, EngagementRate: 4.8,
		AvgViews: 89_000, Aesthetic: "clean girl, minimalist, neutral tones",
		RecentBrands: []string{"Glossier", "Sephora"}, BaseRate: 850,
	},
	{
		ID: 2, Name: "Jayden Cole", Handle: "@jaydenfit",
		Niche: "fitness", Followers: 512_000, EngagementRate: 6.2,
		AvgViews: 210_000, Aesthetic: "high energy, gym, transformation",
		RecentBrands: []string{"Gymshark", "MyProtein"}, BaseRate: 1400,
	},
	{
		ID: 3, Name: "Sofia Chen", Handle: "@sofiacooks",
		Niche: "food", Followers: 178_000, EngagementRate: 7.1,
		AvgViews: 95_000, Aesthetic: "cozy kitchen, asian fusion, warm lighting",
		RecentBrands: []string{"HelloFresh"}, BaseRate: 700,
	},
	{
		ID: 4, Name: "Marcus Webb", Handle: "@marcustech",
		Niche: "tech", Followers: 890_000, EngagementRate: 3.4,
		AvgViews: 320_000, Aesthetic: "studio setup, product closeups",
		RecentBrands: []string{"Samsung", "Anker"}, BaseRate: 2200,
	},
	{
		ID: 5, Name: "Lily Park", Handle: "@lilybeauty",
		Niche: "beauty", Followers: 331_000, EngagementRate: 5.5,
		AvgViews: 140_000, Aesthetic: "soft glam, pastel, GRWM",
		RecentBrands: []string{"Rare Beauty", "Fenty"}, BaseRate: 1100,
	},
	{
		ID: 6, Name: "Diego Alvarez", Handle: "@diegotravels",
		Niche: "travel", Followers: 402_000, EngagementRate: 4.1,
		AvgViews: 175_000, Aesthetic: "cinematic, drone shots, golden hour",
		RecentBrands: []string{"Airbnb"}, BaseRate: 1300,
	},
	{
		ID: 7, Name: "Ava Thompson", Handle: "@avathrifts",
		Niche: "fashion", Followers: 156_000, EngagementRate: 8.3,
		AvgViews: 78_000, Aesthetic: "thrifted, vintage, sustainable",
		RecentBrands: []string{"Depop"}, BaseRate: 600,
	},
	{
		ID: 8, Name: "Noah Kim", Handle: "@noahgames",
		Niche: "gaming", Followers: 1_250_000, EngagementRate: 5.9,
		AvgViews: 540_000, Aesthetic: "neon, streaming, reaction content",
		RecentBrands: []string{"Razer", "Red Bull"}, BaseRate: 3000,
	},
}
