// Package preload holds a curated demo vocabulary designed to form distinct semantic
// clusters once embedded.
package preload

// Category is a named group of related words.
type Category struct {
	Name  string
	Words []string
}

// Categories returns the demo vocabulary grouped by topic.
func Categories() []Category {
	return []Category{
		{"animals", []string{
			"dog", "cat", "wolf", "lion", "tiger", "elephant", "giraffe", "zebra",
			"eagle", "hawk", "sparrow", "penguin", "dolphin", "whale", "shark", "salmon",
		}},
		{"colors", []string{
			"red", "blue", "green", "yellow", "purple", "orange", "pink", "black",
			"white", "gray", "crimson", "azure", "emerald", "gold", "silver", "indigo",
		}},
		{"emotions", []string{
			"happy", "sad", "angry", "fearful", "surprised", "disgusted", "anxious", "calm",
			"excited", "bored", "grateful", "jealous", "proud", "ashamed", "hopeful", "melancholy",
		}},
		{"food", []string{
			"pizza", "burger", "sushi", "pasta", "salad", "steak", "bread", "cheese",
			"apple", "banana", "mango", "grape", "strawberry", "chocolate", "cake", "ice cream",
		}},
		{"music", []string{
			"guitar", "piano", "drums", "violin", "trumpet", "flute", "bass", "saxophone",
			"jazz", "rock", "classical", "blues", "hip hop", "country", "metal", "electronic",
		}},
		{"sports", []string{
			"soccer", "basketball", "tennis", "golf", "baseball", "hockey", "football", "volleyball",
			"swimming", "running", "cycling", "boxing", "wrestling", "skiing", "surfing", "climbing",
		}},
		{"weather", []string{
			"sunny", "rainy", "cloudy", "snowy", "windy", "foggy", "stormy", "humid",
			"freezing", "scorching", "drizzle", "thunder", "lightning", "hail", "frost", "drought",
		}},
		{"tech", []string{
			"computer", "keyboard", "monitor", "mouse", "server", "database", "algorithm", "network",
			"internet", "software", "hardware", "compiler", "debugger", "terminal", "browser", "encryption",
		}},
	}
}

// Words returns every demo word in category order.
func Words() []string {
	var words []string
	for _, category := range Categories() {
		words = append(words, category.Words...)
	}
	return words
}

// CategoryOf returns the category a demo word belongs to, or "" for unknown words.
func CategoryOf(word string) string {
	for _, category := range Categories() {
		for _, candidate := range category.Words {
			if candidate == word {
				return category.Name
			}
		}
	}
	return ""
}
