package utils

import "strings"

// Label 是推荐链路中的解释信息：可追踪、可透传，但从不返回给调用方。
// Value 与 Source 的语义由各打分器自定义；这里只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / blend / filter ...
}

// Values 返回按 '|' 累积的全部取值。
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, "|")
}

// MergeLabel 合并同名 Label：
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积，相同来源不重复
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "", hasPart(existing.Source, incoming.Source):
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

func hasPart(joined, part string) bool {
	for _, s := range strings.Split(joined, ",") {
		if s == part {
			return true
		}
	}
	return false
}
