package figures

// Figure describes a historical mentor offered by the catalog.
type Figure struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Era         string `json:"era"`
	Specialty   string `json:"specialty"`
}

// Seed returns the default mentor catalog.
func Seed() []Figure {
	return []Figure{
		{
			Name:        "Albert Einstein",
			Description: "Theoretical physicist who developed the theory of relativity and contributed to the development of quantum mechanics.",
			Era:         "20th Century",
			Specialty:   "Physics",
		},
		{
			Name:        "Marie Curie",
			Description: "Physicist and chemist who conducted pioneering research on radioactivity, the first woman to win a Nobel Prize.",
			Era:         "19th-20th Century",
			Specialty:   "Chemistry",
		},
		{
			Name:        "Nelson Mandela",
			Description: "Anti-apartheid revolutionary, political leader, and philanthropist who served as President of South Africa.",
			Era:         "20th-21st Century",
			Specialty:   "Politics",
		},
		{
			Name:        "Leonardo da Vinci",
			Description: "Polymath of the High Renaissance: painter, sculptor, architect, musician, scientist, inventor, and more.",
			Era:         "15th-16th Century",
			Specialty:   "Art and Science",
		},
		{
			Name:        "William Shakespeare",
			Description: "English playwright, poet, and actor, widely regarded as the greatest writer in the English language.",
			Era:         "16th-17th Century",
			Specialty:   "Literature",
		},
		{
			Name:        "Stephen Hawking",
			Description: "Theoretical physicist known for his work on black holes and relativity, and for his bestselling book \"A Brief History of Time\".",
			Era:         "20th-21st Century",
			Specialty:   "Theoretical Physics",
		},
		{
			Name:        "Jane Goodall",
			Description: "Primatologist and anthropologist who has conducted groundbreaking studies on wild chimpanzees.",
			Era:         "20th-21st Century",
			Specialty:   "Primatology",
		},
		{
			Name:        "Carl Sagan",
			Description: "Astronomer, planetary scientist, and science communicator known for his work on extraterrestrial life.",
			Era:         "20th Century",
			Specialty:   "Astronomy",
		},
	}
}

// Greeting synthesises a figure's opening line from its name and specialty.
func Greeting(f Figure) string {
	return "Hello! I am " + f.Name + ". What would you like to learn about " + f.Specialty + " today?"
}

// Store exposes figure retrieval for HTTP handlers.
type Store interface {
	List() []Figure
	FindByName(name string) (Figure, bool)
}

// MemoryStore implements Store with an in-memory slice seeded at startup.
type MemoryStore struct {
	items []Figure
}

func NewMemoryStore(items []Figure) *MemoryStore {
	return &MemoryStore{items: append([]Figure(nil), items...)}
}

func (s *MemoryStore) List() []Figure {
	return append([]Figure(nil), s.items...)
}

// FindByName looks up a figure by exact name.
func (s *MemoryStore) FindByName(name string) (Figure, bool) {
	for _, item := range s.items {
		if item.Name == name {
			return item, true
		}
	}
	return Figure{}, false
}

// Describe returns the catalog entry for name, or a generic descriptor for
// mentors outside the seed catalog.
func Describe(store Store, name string) Figure {
	if store != nil {
		if f, ok := store.FindByName(name); ok {
			return f
		}
	}
	return Figure{
		Name:        name,
		Description: "Historical figure: " + name,
		Era:         "Historical",
		Specialty:   "Various subjects",
	}
}
