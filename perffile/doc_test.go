package perffile

import (
	"fmt"
	"log"
)

func Example() {
	f, err := Open("perf.data")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	rs, err := f.Records()
	if err != nil {
		log.Fatal(err)
	}
	for rs.Next() {
		switch r := rs.Record.(type) {
		case *RecordSample:
			fmt.Printf("sample: %+v\n", r)
		}
	}
}
