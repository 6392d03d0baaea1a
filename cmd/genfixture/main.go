// Command genfixture writes a small synthetic data root in the production
// layout: one probe year with data and TMC identification files, one
// detector corridor with per-direction files, the metadata reference files
// with hex-EWKB geometry columns, and a probe region CSV. It exists so the
// crosswalk and merge commands can be exercised end to end without a real
// data drop.
//
// Usage:
//
//	go run ./cmd/genfixture -out /tmp/cades -year 2023
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/project"
)

// The fixture places three stations along a straight stretch of I-205 and a
// pair of probe segments that cover the first two of them.
var stationLons = []float64{-122.60, -122.58, -122.56}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write the fixture tree into")
	year := flag.Int("year", 2023, "dataset year to generate")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	if err := writeProbe(*out, *year); err != nil {
		return err
	}
	if err := writeDetector(*out, *year); err != nil {
		return err
	}
	if err := writeMetadata(*out); err != nil {
		return err
	}
	if err := writeProbeRegion(*out); err != nil {
		return err
	}

	log.Printf("fixture tree written under %s", *out)
	return nil
}

func writeProbe(out string, year int) error {
	dir := filepath.Join(out, "CADES_INRIX", fmt.Sprintf("INRIX_CADES_%d", year))

	data := "tmc_code,measurement_tstamp,travel_time_seconds\n"
	for hour := 7; hour < 10; hour++ {
		data += fmt.Sprintf("T1,%d-10-01 %02d:00:00,%d\n", year, hour, 240+hour)
		data += fmt.Sprintf("T2,%d-10-01 %02d:00:00,%d\n", year, hour, 180+hour)
	}
	if err := writeFile(filepath.Join(dir, fmt.Sprintf("INRIX_CADES_%d.csv", year)), data); err != nil {
		return err
	}

	return writeFile(filepath.Join(dir, fmt.Sprintf("TMC_Identification_%d.csv", year)), "tmc\nT1\nT2\n")
}

func writeDetector(out string, year int) error {
	dir := filepath.Join(out, "CADES_PORTAL", "I-205 Corridor")

	nb := "stationid,starttime,stationtt\n"
	sb := "stationid,starttime,stationtt\n"
	for hour := 7; hour < 10; hour++ {
		nb += fmt.Sprintf("S1,%d-10-01T%02d:00:00-07,%d\n", year, hour, 4+hour%2)
		nb += fmt.Sprintf("S2,%d-10-01T%02d:00:00-07,%d\n", year, hour, 3+hour%2)
		sb += fmt.Sprintf("S3,%d-10-01T%02d:00:00-07,%d\n", year, hour, 5)
	}
	if err := writeFile(filepath.Join(dir, fmt.Sprintf("portal_%d_NB.csv", year)), nb); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, fmt.Sprintf("portal_%d_SB.csv", year)), sb)
}

func writeMetadata(out string) error {
	dir := filepath.Join(out, "CADES_PORTAL", "metadata")

	stations := "stationid,highwayid,milepost,lon,lat,start_date,end_date,segment_geom,station_geom\n"
	for i, lon := range stationLons {
		segment, err := mercatorHex(orb.LineString{{lon, 45.50}, {lon, 45.52}})
		if err != nil {
			return err
		}
		point, err := mercatorHex(orb.Point{lon, 45.51})
		if err != nil {
			return err
		}
		stations += fmt.Sprintf("S%d,H1,%.1f,%.2f,45.51,2011-09-15 00:00:00-07,,%s,%s\n",
			i+1, 12.0+float64(i), lon, segment, point)
	}
	if err := writeFile(filepath.Join(dir, "stations.csv"), stations); err != nil {
		return err
	}

	highways := "highwayid,direction,bound,highwayname\nH1,NORTH,NB,I-205 NB\n"
	if err := writeFile(filepath.Join(dir, "highways.csv"), highways); err != nil {
		return err
	}

	detectors := "detectorid,stationid\nD1,S1\nD2,S2\nD3,S3\n"
	return writeFile(filepath.Join(dir, "detectors.csv"), detectors)
}

// writeProbeRegion writes a WGS84 CSV region: T1 spans the first two
// stations, T2 sits away from all of them.
func writeProbeRegion(out string) error {
	t1, err := wgs84Hex(orb.LineString{{-122.61, 45.51}, {-122.57, 45.51}})
	if err != nil {
		return err
	}
	t2, err := wgs84Hex(orb.LineString{{-122.40, 45.40}, {-122.38, 45.40}})
	if err != nil {
		return err
	}

	data := "tmc,direction,road_number,miles,start_lat,start_lon,end_lat,end_lon,geom\n" +
		fmt.Sprintf("T1,NORTHBOUND,I-205,1.9,45.51,-122.61,45.51,-122.57,%s\n", t1) +
		fmt.Sprintf("T2,SOUTHBOUND,I-205,0.9,45.40,-122.40,45.40,-122.38,%s\n", t2)
	return writeFile(filepath.Join(out, "probe_region.csv"), data)
}

func mercatorHex(g orb.Geometry) (string, error) {
	raw, err := ewkb.Marshal(project.Geometry(g, project.WGS84.ToMercator), 3857)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func wgs84Hex(g orb.Geometry) (string, error) {
	raw, err := ewkb.Marshal(g, 4326)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}
