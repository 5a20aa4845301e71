package matcher

import (
	"testing"

	"mercator-hq/matchgram/pkg/rule/ast"
)

const pacific = "太平洋（Pacific Ocean）是地球上四大洋中面积最大、深度最深、边缘海和岛屿最多的大洋。" +
	"2020年12月，太平洋地区多个国家召开会议。"

func TestPatternSet(t *testing.T) {
	tests := []struct {
		name     string
		literals []string
		text     string
		wantAny  bool
		wantAll  bool
	}{
		{"all present", []string{"太平洋", "年", "月", "大洋"}, pacific, true, true},
		{"one missing", []string{"太平洋", "年", "月", "北冰洋"}, pacific, true, false},
		{"none present", []string{"a1", "b2", "c3", "d4"}, pacific, false, false},
		{"overlapping literals", []string{"太平洋", "平洋", "洋", "太平"}, "太平洋", true, true},
		{"duplicates", []string{"年", "年", "月", "月"}, pacific, true, true},
		{"empty literal", []string{"", "x", "y", "z"}, "abc", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := newPatternSet(tt.literals)
			if got := ps.any(tt.text); got != tt.wantAny {
				t.Errorf("any() = %v, want %v", got, tt.wantAny)
			}
			if got := ps.all(tt.text); got != tt.wantAll {
				t.Errorf("all() = %v, want %v", got, tt.wantAll)
			}
		})
	}
}

func TestPatternSet_AgreesWithDirectSearch(t *testing.T) {
	literals := []string{"承接", "广告", "菠菜", "博彩", "东南亚"}
	values := make(ast.Values, len(literals))
	for i, l := range literals {
		values[i] = ast.LetterOf(l)
	}
	ps := newPatternSet(literals)

	texts := []string{
		"承接各类广告，东南亚菠菜博彩",
		"承接广告",
		"今天天气不错",
		"",
	}
	for _, text := range texts {
		wantAny, _ := anyString(text, values)
		wantAll, _ := allString(text, values)
		if got := ps.any(text); got != wantAny {
			t.Errorf("any(%q) = %v, want %v", text, got, wantAny)
		}
		if got := ps.all(text); got != wantAll {
			t.Errorf("all(%q) = %v, want %v", text, got, wantAll)
		}
	}
}
