// Package guidelines loads the retail listing guidelines that anchor the
// analysis and recommendation prompts.
package guidelines

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules holds listing guidelines grouped by the field they govern.
type Rules struct {
	General      []string `yaml:"general"`
	Title        []string `yaml:"title"`
	BulletPoints []string `yaml:"bullet_points"`
	Description  []string `yaml:"description"`
	Category     []string `yaml:"category"`
	Brand        []string `yaml:"brand"`
}

// Defaults returns the built-in guidelines used when no rules file is
// configured. Condensed from the retailer's listing policy.
func Defaults() *Rules {
	return &Rules{
		General: []string{
			"Listings must be accurate and describe only the product being sold.",
			"Do not include promotional language, pricing, or shipping claims in any field.",
		},
		Title: []string{
			"Keep titles under 200 characters; aim for 80 or fewer.",
			"Capitalize the first letter of each word except conjunctions and prepositions.",
			"Lead with the brand, then the product line, then distinguishing attributes.",
			"Do not use ALL CAPS, special characters, or subjective claims like 'best seller'.",
		},
		BulletPoints: []string{
			"Use five bullet points highlighting key features and benefits.",
			"Begin each bullet with a capital letter and write in sentence fragments.",
			"Keep each bullet under 255 characters and do not end with punctuation.",
		},
		Description: []string{
			"Describe the product's features, use cases, and fit in complete sentences.",
			"Stay under 2000 characters and avoid repeating the bullet points verbatim.",
		},
		Category: []string{
			"Assign the most specific category node the product belongs to.",
		},
		Brand: []string{
			"Use the manufacturer's brand name exactly as it appears on the product.",
		},
	}
}

// Load reads a guidelines rules file. An empty path returns the built-in
// defaults; a configured path that fails to load is an error.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "guidelines: read %s", path)
	}

	// The YAML has a top-level "guidelines" key
	var wrapper struct {
		Guidelines Rules `yaml:"guidelines"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "guidelines: parse rules")
	}

	return &wrapper.Guidelines, nil
}

// Render flattens the rules into the markdown block embedded in prompts.
func (r *Rules) Render() string {
	var b strings.Builder
	section := func(name string, rules []string) {
		if len(rules) == 0 {
			return
		}
		b.WriteString("## " + name + "\n")
		for _, rule := range rules {
			b.WriteString("- " + rule + "\n")
		}
	}
	section("General", r.General)
	section("Title", r.Title)
	section("Bullet Points", r.BulletPoints)
	section("Description", r.Description)
	section("Category", r.Category)
	section("Brand", r.Brand)
	return b.String()
}
