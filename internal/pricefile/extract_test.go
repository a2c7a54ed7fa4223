package pricefile

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectDelimiter(t *testing.T) {
	cases := []struct {
		name string
		text string
		want rune
	}{
		{name: "semicolon", text: "a;b;c\n1;2;3\n", want: ';'},
		{name: "comma", text: "a,b,c\n1,2,3\n", want: ','},
		{name: "tab", text: "a\tb\tc\n1\t2\t3\n", want: '\t'},
		{name: "semicolon beats comma in values", text: "a;b,b2;c\nx;y,y2;z\n", want: ';'},
		{name: "inconclusive falls back to comma", text: "plain text\nno separators\n", want: ','},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectDelimiter(tc.text); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDecodeFileCP1251Fallback(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().Bytes([]byte("Бренд;Артикул;Описание;Цена;Количество\n"))
	if err != nil {
		t.Fatal(err)
	}
	path := writeTemp(t, "brand_BOSCH.csv", encoded)

	text, err := DecodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Бренд;Артикул;Описание;Цена;Количество\n" {
		t.Fatalf("decoded %q", text)
	}
}

func TestExtract(t *testing.T) {
	content := `"Бренд";"Артикул";"Описание";"Цена";"Количество"
"BOSCH";"AG 01007";"Фильтр масляный";"200,00";"5"
"BOSCH";"F00BH40270";"4600000000017";"1 250,50";"12"
"BOSCH";"Артикул";"Описание";"Цена";"Количество"
"BOSCH";"X";"однобуквенный артикул";"100";"1"
"BOSCH";"NOPRICE1";"нет цены";"";"3"
"BOSCH";"BADQTY01";"мусор в количестве";"150";"abc"
"BOSCH";"SHORTROW";"строка короче"
`
	path := writeTemp(t, "brand_BOSCH.csv", []byte(content))

	records, err := Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("len=%d records=%+v", len(records), records)
	}

	first := records[0]
	if first.Article != "AG01007" || first.Price != 200.0 || first.Quantity != 5 {
		t.Fatalf("first=%+v", first)
	}
	second := records[1]
	if second.Article != "F00BH40270" || second.Price != 1250.5 || second.Quantity != 12 {
		t.Fatalf("second=%+v", second)
	}
	if second.Barcode != "4600000000017" {
		t.Fatalf("barcode=%q", second.Barcode)
	}
}

func TestExtractUndecodableFails(t *testing.T) {
	// 0x98 is undefined in cp1251 and invalid as utf-8 lead byte
	path := writeTemp(t, "brand_X.csv", []byte{0x98, 0xff, 0xfe, 0x98})
	if _, err := Extract(path); err == nil {
		t.Fatal("expected decode error")
	}
}
