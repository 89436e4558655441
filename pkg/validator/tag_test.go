package validator

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTagValues(t *testing.T) {
	tests := []struct {
		name    string
		tag     reflect.StructTag
		key     string
		want    []string
		wantErr bool
	}{
		{name: "单个", tag: `keyregex:"^[a-z]+$"`, key: "keyregex", want: []string{"^[a-z]+$"}},
		{name: "重复", tag: `keyregex:"^[a-z]+$" json:"labels" keyregex:"^.{1,5}$"`, key: "keyregex", want: []string{"^[a-z]+$", "^.{1,5}$"}},
		{name: "正则中的逗号", tag: `keyregex:"^(a,b|c),,$"`, key: "keyregex", want: []string{"^(a,b|c),,$"}},
		{name: "结尾逗号", tag: `keyregex:"^a,"`, key: "keyregex", want: []string{"^a,"}},
		{name: "不存在", tag: `json:"labels"`, key: "keyregex", want: nil},
		{name: "前缀相同的其他键", tag: `keyregex_msg:"x" keyregex:"^a$"`, key: "keyregex", want: []string{"^a$"}},
		{name: "转义", tag: `keyregex:"^\\d+\"$"`, key: "keyregex", want: []string{`^\d+"$`}},
		{name: "空标签", tag: ``, key: "keyregex", want: nil},
		{name: "格式错误", tag: `keyregex:"^a$" broken keyregex:"^b$"`, key: "keyregex", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lookupTagValues(tt.tag, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJsonFieldName(t *testing.T) {
	type sample struct {
		A string `json:"a,omitempty"`
		B string `json:"-"`
		C string
		D string `json:",omitempty"`
	}

	typ := reflect.TypeOf(sample{})
	expected := []string{"a", "B", "C", "D"}
	for i, want := range expected {
		assert.Equal(t, want, jsonFieldName(typ.Field(i)))
	}
}
