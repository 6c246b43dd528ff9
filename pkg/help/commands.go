package help

// Category groups commands in help output.
type Category string

const (
	// CategoryForm holds the commands that edit the audit form.
	CategoryForm Category = "form"

	// CategoryReview holds read-only views of the form.
	CategoryReview Category = "review"

	// CategoryOutput holds export, save and reset.
	CategoryOutput Category = "output"

	// CategoryGeneral holds /help and /quit.
	CategoryGeneral Category = "general"
)

// CategoryInfo provides display metadata for a command category.
type CategoryInfo struct {
	DisplayName string
	Icon        string
}

// CategoryOrder defines the order in which categories appear in help output.
var CategoryOrder = []Category{
	CategoryForm,
	CategoryReview,
	CategoryOutput,
	CategoryGeneral,
}

// Categories maps each Category to its display information.
var Categories = map[Category]CategoryInfo{
	CategoryForm:    {DisplayName: "Audit Form", Icon: "📝"},
	CategoryReview:  {DisplayName: "Review", Icon: "🔎"},
	CategoryOutput:  {DisplayName: "Export & Storage", Icon: "📄"},
	CategoryGeneral: {DisplayName: "General", Icon: "ℹ"},
}

// DisplayName returns the human-readable display name for the category.
func (c Category) DisplayName() string {
	if info, ok := Categories[c]; ok {
		return info.DisplayName
	}
	return string(c)
}

// Icon returns the icon for the category.
func (c Category) Icon() string {
	if info, ok := Categories[c]; ok {
		return info.Icon
	}
	return ""
}

// Command is the help metadata for one shell command.
type Command struct {
	// Name includes the leading slash, e.g. "/help".
	Name string

	// Shortcut is an optional alias, e.g. "/h".
	Shortcut string

	Category    Category
	Description string

	// Usage shows the syntax, e.g. "/answer <qid> <c|nc|na|clear>".
	Usage string

	Examples []Example
}

// Example is one sample invocation.
type Example struct {
	Command     string
	Description string
}

// Commands is the source of truth for shell command documentation.
var Commands = []Command{
	{
		Name:        "/company",
		Category:    CategoryForm,
		Description: "Set a company information field",
		Usage:       "/company <field> <value>",
		Examples: []Example{
			{Command: "/company auditeeName Acme Pharma", Description: "Set the auditee name"},
			{Command: "/company auditStartDate 2024-03-01", Description: "Set the audit start date"},
		},
	},
	{
		Name:        "/answer",
		Shortcut:    "/a",
		Category:    CategoryForm,
		Description: "Set the compliance status of a question",
		Usage:       "/answer <qid> <c|nc|na|clear>",
		Examples: []Example{
			{Command: "/answer 1a c", Description: "Mark 1a compliant"},
			{Command: "/answer 3f nc", Description: "Mark 3f not compliant"},
			{Command: "/answer 2b clear", Description: "Clear the answer for 2b"},
		},
	},
	{
		Name:        "/note",
		Shortcut:    "/n",
		Category:    CategoryForm,
		Description: "Set the notes of a question",
		Usage:       "/note <qid> <text>",
		Examples: []Example{
			{Command: "/note 3f Cleaning log missing for line 2", Description: "Record an observation"},
		},
	},
	{
		Name:        "/category",
		Category:    CategoryForm,
		Description: "Set the observation category of a question",
		Usage:       "/category <qid> <text>",
		Examples: []Example{
			{Command: "/category 3f Major", Description: "Classify the finding as major"},
		},
	},
	{
		Name:        "/photo",
		Category:    CategoryForm,
		Description: "Validate, compress and attach a photo",
		Usage:       "/photo <qid> <path>",
		Examples: []Example{
			{Command: "/photo 2a ./warehouse.jpg", Description: "Attach a photo to 2a"},
		},
	},
	{
		Name:        "/unphoto",
		Category:    CategoryForm,
		Description: "Remove a photo from a question",
		Usage:       "/unphoto <qid> <photo#>",
		Examples: []Example{
			{Command: "/unphoto 2a 1", Description: "Remove the first photo of 2a"},
		},
	},
	{
		Name:        "/sections",
		Category:    CategoryReview,
		Description: "List sections with answered counts",
		Usage:       "/sections",
	},
	{
		Name:        "/show",
		Category:    CategoryReview,
		Description: "Show a section or a single question",
		Usage:       "/show <section#|qid>",
		Examples: []Example{
			{Command: "/show 3", Description: "Show section 3"},
			{Command: "/show 3f", Description: "Show question 3f"},
		},
	},
	{
		Name:        "/stats",
		Category:    CategoryReview,
		Description: "Show compliance statistics and the verdict",
		Usage:       "/stats",
	},
	{
		Name:        "/export",
		Category:    CategoryOutput,
		Description: "Export the report as PDF, HTML or CSV",
		Usage:       "/export [pdf|html|csv] [path]",
		Examples: []Example{
			{Command: "/export", Description: "Write the PDF to the output directory"},
			{Command: "/export csv summary.csv", Description: "Write a CSV summary"},
		},
	},
	{
		Name:        "/save",
		Category:    CategoryOutput,
		Description: "Save the form now",
		Usage:       "/save",
	},
	{
		Name:        "/reset",
		Category:    CategoryOutput,
		Description: "Clear every answer and all company information",
		Usage:       "/reset",
	},
	{
		Name:        "/help",
		Shortcut:    "/h",
		Category:    CategoryGeneral,
		Description: "Show this help message",
		Usage:       "/help [command]",
		Examples: []Example{
			{Command: "/help", Description: "Show all commands"},
			{Command: "/help answer", Description: "Show detailed /answer help"},
		},
	},
	{
		Name:        "/quit",
		Shortcut:    "/q",
		Category:    CategoryGeneral,
		Description: "Save and exit",
		Usage:       "/quit",
	},
}

// GetCommandsByCategory returns all commands in a given category.
func GetCommandsByCategory(cat Category) []Command {
	var result []Command
	for _, cmd := range Commands {
		if cmd.Category == cat {
			result = append(result, cmd)
		}
	}
	return result
}

// GetCommand returns a command by name or shortcut, with or without the
// leading slash.
func GetCommand(name string) (Command, bool) {
	if name == "" || name == "/" {
		return Command{}, false
	}
	if name[0] != '/' {
		name = "/" + name
	}
	for _, cmd := range Commands {
		if cmd.Name == name || (cmd.Shortcut != "" && cmd.Shortcut == name) {
			return cmd, true
		}
	}
	return Command{}, false
}
