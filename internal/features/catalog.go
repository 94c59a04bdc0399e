package features

// Info describes a feature for presentation: display name, blurb and the
// age it unlocks at.
type Info struct {
	Flag        Flag   `json:"flag"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UnlocksAt   int    `json:"unlocks_at"`
}

var catalog = []Info{
	{Memories, "Memories", "Upload and organize photos, videos, audio recordings, and text memories", 0},
	{BasicMilestones, "First Milestones", "Record the very first moments from day one", 0},
	{Milestones, "Milestone Tracker", "Track important developmental milestones and achievements", 1},
	{GrowthChart, "Growth Chart", "Monitor height, weight, and growth progress over time", 1},
	{AICaptions, "AI Photo Captions", "Automatically generate captions for photos using AI", 1},
	{MemoryMap, "Memory Map", "View memories on a map based on their locations", 2},
	{BedtimeStories, "Bedtime Story Generator", "Generate personalized bedtime stories using AI", 3},
	{VoiceNotes, "Voice Notes", "Record voice messages for and from the child", 5},
	{Drawings, "Drawings", "Upload the child's drawings and artwork", 5},
	{Guestbook, "Guestbook", "Friends and family can leave messages", 13},
	{Journaling, "Journaling", "The child can keep their own journal", 13},
	{OwnershipTransfer, "Ownership Transfer", "Transfer album ownership to the grown-up child", 18},
	{FullExport, "Full Export", "Export all data in one archive", 18},
}

// Catalog returns feature descriptions in unlock order.
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}
