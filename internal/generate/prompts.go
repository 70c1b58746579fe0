package generate

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/listing-cli/internal/guidelines"
	"github.com/sells-group/listing-cli/internal/model"
)

const analysisSystem = `You are an e-commerce analyst producing competitive analyses of retail product listings.`

const recommendationSystem = `You are an e-commerce product optimization consultant. You generate exactly three actionable recommendations to improve a product listing, in a strict output format downstream tooling parses.`

const summarySystem = `You are a reporting agent summarizing a completed product listing optimization cycle.`

func buildPrompt(stage model.Stage, rules *guidelines.Rules, product *model.Product, in Inputs) (system, prompt string, err error) {
	switch stage {
	case model.StageAnalysis:
		return analysisSystem, analysisPrompt(rules, product), nil
	case model.StageRecommendation:
		if in.Analysis == "" {
			return "", "", eris.New("generate: recommendation stage requires an analysis artifact")
		}
		return recommendationSystem, recommendationPrompt(rules, product, in.Analysis), nil
	case model.StageSummary:
		return summarySystem, summaryPrompt(product, in), nil
	default:
		return "", "", eris.Errorf("generate: unknown stage %q", stage)
	}
}

// renderProduct formats the listing's current state for prompt inclusion.
func renderProduct(p *model.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product ID: %s\nTitle: %s\n", p.ID, p.Title)
	if p.Brand != "" {
		fmt.Fprintf(&b, "Brand: %s\n", p.Brand)
	}
	if p.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", p.Category)
	}
	if len(p.BulletPoints) > 0 {
		b.WriteString("Bullet points:\n")
		for i, bp := range p.BulletPoints {
			fmt.Fprintf(&b, "  [%d] %s\n", i, bp)
		}
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	return b.String()
}

func analysisPrompt(rules *guidelines.Rules, p *model.Product) string {
	var b strings.Builder
	b.WriteString("Analyze the following product listing against the listing guidelines and typical top-ranked competitors in its category.\n\n")
	b.WriteString("# Current Listing\n")
	b.WriteString(renderProduct(p))
	b.WriteString("\n# Listing Guidelines\n")
	b.WriteString(rules.Render())
	b.WriteString(`
# Output
Produce a markdown report covering:
- Guideline compliance of each field (title, bullet points, description, category, brand)
- Likely competitive weaknesses given the category
- The three areas with the highest improvement potential
`)
	return b.String()
}

func recommendationPrompt(rules *guidelines.Rules, p *model.Product, analysis string) string {
	var b strings.Builder
	b.WriteString("Based on the competitive analysis below, generate exactly 3 recommendations to improve this listing.\n\n")
	b.WriteString("# Current Listing\n")
	b.WriteString(renderProduct(p))
	b.WriteString("\n# Competitive Analysis\n")
	b.WriteString(analysis)
	b.WriteString("\n# Listing Guidelines\n")
	b.WriteString(rules.Render())
	b.WriteString(`
# Output Format (strict)
Emit each recommendation exactly as:

## Recommendation <n>: <short action-oriented title>
**Field:** <one of: title, description, category, brand, bullet_point[<index>], bullet_point[append]>
**Proposed Change:**
<the complete replacement value for that field, nothing else>
**Rationale:** <why this change matters, citing the guidelines>

Rules:
- Exactly 3 recommendations.
- The Proposed Change block must contain only the new field value.
- bullet_point indexes are zero-based and must refer to an existing bullet.
`)
	return b.String()
}

func summaryPrompt(p *model.Product, in Inputs) string {
	applied := model.Applied(in.Outcomes)
	outcomeByItem := make(map[string]model.ApplyOutcome, len(in.Outcomes))
	for _, o := range in.Outcomes {
		outcomeByItem[o.ItemID] = o
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a markdown summary report for the optimization cycle of product %s (%s).\n\n", p.ID, p.Title)
	fmt.Fprintf(&b, "%d of %d recommendations successfully applied.\n\n", applied, len(in.Items))
	b.WriteString("# Recommendations and Outcomes\n")
	for _, item := range in.Items {
		target := string(item.Field)
		if item.Field == model.FieldBullet {
			if item.BulletIndex == model.BulletAppend {
				target = "bullet_point[append]"
			} else {
				target = fmt.Sprintf("bullet_point[%d]", item.BulletIndex)
			}
		}
		fmt.Fprintf(&b, "- %s (%s): proposed %q", item.Title, target, item.Value)
		if o, ok := outcomeByItem[item.ID]; ok {
			if o.Status == model.ApplyStatusApplied {
				b.WriteString(" — applied\n")
			} else {
				fmt.Fprintf(&b, " — failed: %s\n", o.Detail)
			}
		} else {
			b.WriteString(" — not attempted\n")
		}
	}
	b.WriteString(`
# Output
Produce a report with:
## Executive Summary
State the product and that ` + fmt.Sprintf("%d of %d", applied, len(in.Items)) + ` recommendations were successfully applied.
## Implementation Results
A table with one row per recommendation: title, target field, status, detail.
## Next Steps
Brief suggestions for any failed or remaining improvements.
`)
	return b.String()
}
