// Package procedures normalizes the legacy and current procedure shapes into one
// categorized, deduplicated list and assigns chart colors to procedure names.
package procedures

import (
	"strings"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/pkg/utils"
)

// Keyword lists are matched as case-insensitive substrings, injection first.
var (
	injectionKeywords = []string{
		"avastin", "bevacizumab", "lucentis", "ranibizumab", "razumab", "accentrix",
		"eylea", "aflibercept", "pagenax", "vabysmo", "faricimab", "ozurdex",
		"triamcinolone", "anti-vegf", "intravitreal", "ivt", "subtenon", "injection", "inj.",
	}
	laserKeywords = []string{
		"laser", "prp", "photocoagulation", "yag", "slt", "lpi", "iridotomy",
		"capsulotomy", "pdt", "barrage",
	}
	surgeryKeywords = []string{
		"phaco", "cataract", "sics", "ecce", "iol", "vitrectomy", "ppv", "trabeculectomy",
		"keratoplasty", "dsek", "dmek", "scleral buckle", "silicone oil", "valve",
		"pterygium", "dcr", "squint", "strabismus", "surgery",
	}
)

// Classify maps a free-text procedure name to its display category
func Classify(name string) entities.ProcedureCategory {
	if _, ok := utils.ContainsAnyFold(name, injectionKeywords); ok {
		return entities.ProcedureCategoryInjection
	}
	if _, ok := utils.ContainsAnyFold(name, laserKeywords); ok {
		return entities.ProcedureCategoryLaser
	}
	if _, ok := utils.ContainsAnyFold(name, surgeryKeywords); ok {
		return entities.ProcedureCategorySurgery
	}
	return entities.ProcedureCategoryOther
}

// placeholders mean "no procedure" and are dropped before counting
var placeholders = []string{
	"", "none", "nil", "na", "n/a", "-", "--", "no",
	"no re procedure", "no le procedure", "no be procedure",
}

// IsPlaceholder reports whether name is a "no procedure" sentinel
func IsPlaceholder(name string) bool {
	return utils.MatchesAnyFold(utils.NormalizeFinding(name), placeholders)
}

// parseCategory resolves an explicit category label, falling back to def
func parseCategory(raw string, def entities.ProcedureCategory) entities.ProcedureCategory {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "injection", "injections":
		return entities.ProcedureCategoryInjection
	case "laser", "lasers":
		return entities.ProcedureCategoryLaser
	case "surgery", "surgeries":
		return entities.ProcedureCategorySurgery
	case "procedure", "procedures", "other":
		return entities.ProcedureCategoryOther
	}
	return def
}
