package bot

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	cases := []struct {
		text    string
		cmd     string
		args    []string
		command bool
	}{
		{"/habits", "habits", nil, true},
		{"  /AddHabit Зарядка 1,3,5 ", "addhabit", []string{"Зарядка", "1,3,5"}, true},
		{"/shop@habits_bot", "shop", nil, true},
		{"!done 2", "done", []string{"2"}, true},
		{"просто текст", "", nil, false},
		{"/", "", nil, false},
		{"/@bot", "", nil, false},
	}
	for _, tc := range cases {
		cmd, args, ok := p.ParseCommand(tc.text)
		if cmd != tc.cmd || ok != tc.command || !reflect.DeepEqual(args, tc.args) {
			t.Errorf("ParseCommand(%q) = %q %v %v", tc.text, cmd, args, ok)
		}
	}
}
