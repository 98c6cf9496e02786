package service

import "strings"

const CategoryOther = "other"

// 按顺序匹配，先命中的分类生效
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"technology", []string{"software", "it", "cybersecurity", "web development", "mobile apps", "cloud computing", "artificial intelligence"}},
	{"healthcare", []string{"medical", "dental", "dentist", "pharmacy", "wellness", "fitness", "mental health", "healthcare technology"}},
	{"retail", []string{"fashion", "electronics", "groceries", "furniture", "e-commerce", "luxury goods", "sporting goods"}},
	{"services", []string{"consulting", "legal", "accounting", "marketing", "design", "cleaning", "maintenance"}},
	{"hospitality", []string{"restaurants", "hotels", "tourism", "events", "catering", "travel", "entertainment"}},
}

// Categorize 关键词子串匹配，"it" 会命中 "fitness" 这类词，属于已知行为
func Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.category
			}
		}
	}
	return CategoryOther
}
