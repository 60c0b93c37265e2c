package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/vitae/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestAreas(t *testing.T) {
	convey.Convey("Given the closed area set", t, func() {
		areas := model.Areas()

		convey.Convey("Then it should enumerate all six areas in canonical order", func() {
			convey.So(areas, convey.ShouldResemble, []model.Area{
				model.AreaLegal,
				model.AreaTech,
				model.AreaFinance,
				model.AreaInfrastructure,
				model.AreaMarketing,
				model.AreaOperations,
			})
		})

		convey.Convey("When the returned slice is mutated", func() {
			areas[0] = model.Area("bogus")

			convey.Convey("Then subsequent calls are unaffected", func() {
				convey.So(model.Areas()[0], convey.ShouldEqual, model.AreaLegal)
			})
		})
	})
}

func TestParseArea(t *testing.T) {
	convey.Convey("Given area wire strings", t, func() {
		convey.Convey("When parsing a known area", func() {
			area, ok := model.ParseArea("finance")

			convey.Convey("Then it should map onto the enum", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(area, convey.ShouldEqual, model.AreaFinance)
			})
		})

		convey.Convey("When parsing an unknown area", func() {
			_, ok := model.ParseArea("astrology")

			convey.Convey("Then it should be rejected", func() {
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When parsing the empty string", func() {
			_, ok := model.ParseArea("")

			convey.Convey("Then it should be rejected", func() {
				convey.So(ok, convey.ShouldBeFalse)
			})
		})
	})
}

func TestLevel(t *testing.T) {
	convey.Convey("Given the ordinal level set", t, func() {
		convey.Convey("Then levels should order from entry to expert", func() {
			convey.So(model.LevelEntry, convey.ShouldBeLessThan, model.LevelIntermediate)
			convey.So(model.LevelIntermediate, convey.ShouldBeLessThan, model.LevelAdvanced)
			convey.So(model.LevelAdvanced, convey.ShouldBeLessThan, model.LevelExpert)
		})

		convey.Convey("When converting to strings", func() {
			convey.So(model.LevelEntry.String(), convey.ShouldEqual, "entry")
			convey.So(model.LevelExpert.String(), convey.ShouldEqual, "expert")
		})

		convey.Convey("When parsing known names", func() {
			level, ok := model.ParseLevel("advanced")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(level, convey.ShouldEqual, model.LevelAdvanced)
		})

		convey.Convey("When parsing an unknown name", func() {
			level, ok := model.ParseLevel("wizard")
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(level, convey.ShouldEqual, model.LevelEntry)
		})

		convey.Convey("When round-tripping through JSON", func() {
			spec := model.Specialization{Name: "contracts", Level: model.LevelExpert, Area: model.AreaLegal}
			raw, err := json.Marshal(spec)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(raw), convey.ShouldContainSubstring, `"level":"expert"`)

			var back model.Specialization
			convey.So(json.Unmarshal(raw, &back), convey.ShouldBeNil)
			convey.So(back.Level, convey.ShouldEqual, model.LevelExpert)
		})
	})
}

func TestMostFitted(t *testing.T) {
	convey.Convey("Given complete score maps", t, func() {
		convey.Convey("When one area clearly leads", func() {
			scores := map[model.Area]float64{
				model.AreaLegal:          4.2,
				model.AreaTech:           1.0,
				model.AreaFinance:        3.1,
				model.AreaInfrastructure: 0.5,
				model.AreaMarketing:      2.0,
				model.AreaOperations:     1.8,
			}

			convey.Convey("Then that area wins", func() {
				convey.So(model.MostFitted(scores), convey.ShouldEqual, model.AreaLegal)
			})
		})

		convey.Convey("When two areas tie for the maximum", func() {
			scores := map[model.Area]float64{
				model.AreaLegal:          3.0,
				model.AreaTech:           4.5,
				model.AreaFinance:        4.5,
				model.AreaInfrastructure: 1.0,
				model.AreaMarketing:      1.0,
				model.AreaOperations:     1.0,
			}

			convey.Convey("Then the tie resolves by canonical enumeration order", func() {
				convey.So(model.MostFitted(scores), convey.ShouldEqual, model.AreaTech)
			})
		})

		convey.Convey("When every area scores zero", func() {
			scores := map[model.Area]float64{}
			for _, a := range model.Areas() {
				scores[a] = 0
			}

			convey.Convey("Then the first enumerated area wins", func() {
				convey.So(model.MostFitted(scores), convey.ShouldEqual, model.AreaLegal)
			})
		})
	})
}

func TestCompleteScores(t *testing.T) {
	convey.Convey("Given score maps of varying shape", t, func() {
		full := func() map[model.Area]float64 {
			m := make(map[model.Area]float64)
			for i, a := range model.Areas() {
				m[a] = float64(i)
			}
			return m
		}

		convey.Convey("When the map covers the full domain in range", func() {
			convey.So(model.CompleteScores(full()), convey.ShouldBeTrue)
		})

		convey.Convey("When an area is missing", func() {
			m := full()
			delete(m, model.AreaMarketing)
			convey.So(model.CompleteScores(m), convey.ShouldBeFalse)
		})

		convey.Convey("When a value is out of range", func() {
			m := full()
			m[model.AreaTech] = 5.1
			convey.So(model.CompleteScores(m), convey.ShouldBeFalse)

			m[model.AreaTech] = -0.1
			convey.So(model.CompleteScores(m), convey.ShouldBeFalse)
		})

		convey.Convey("When an unknown key pads the map to full size", func() {
			m := full()
			delete(m, model.AreaLegal)
			m[model.Area("astrology")] = 3

			convey.So(model.CompleteScores(m), convey.ShouldBeFalse)
		})
	})
}

func TestAnalysisRecordJSON(t *testing.T) {
	convey.Convey("Given a populated analysis record", t, func() {
		ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		rec := model.AnalysisRecord{
			ID:             "rec-1",
			Filename:       "cv.pdf",
			Timestamp:      ts,
			AreaScores:     map[model.Area]float64{model.AreaTech: 4.5},
			MostFittedArea: model.AreaTech,
			Specializations: []model.Specialization{
				{Name: "golang", Level: model.LevelAdvanced, Area: model.AreaTech},
			},
			AnalysisTimeSeconds: 12.5,
			APICalls:            13,
			TokensUsed:          4200,
			ModelUsed:           "gemini-2.5-pro",
		}

		convey.Convey("When marshaled and unmarshaled", func() {
			raw, err := json.Marshal(rec)
			convey.So(err, convey.ShouldBeNil)

			var back model.AnalysisRecord
			convey.So(json.Unmarshal(raw, &back), convey.ShouldBeNil)

			convey.Convey("Then all fields survive the round trip", func() {
				convey.So(back.ID, convey.ShouldEqual, rec.ID)
				convey.So(back.Timestamp.Equal(ts), convey.ShouldBeTrue)
				convey.So(back.AreaScores[model.AreaTech], convey.ShouldEqual, 4.5)
				convey.So(back.Specializations[0].Level, convey.ShouldEqual, model.LevelAdvanced)
				convey.So(back.TokensUsed, convey.ShouldEqual, 4200)
			})
		})

		convey.Convey("When the record carries no unscored areas", func() {
			raw, err := json.Marshal(rec)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the unscored field is omitted", func() {
				convey.So(string(raw), convey.ShouldNotContainSubstring, "unscored_areas")
			})
		})
	})
}
