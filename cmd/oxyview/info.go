package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// ShowSceneInfo prints the objects, lighting, and settings of a scene description.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	v, err := loadViewer(ctx)
	if err != nil {
		return err
	}
	var buf strings.Builder
	writeSceneInfo(&buf, v.assets, v.settings)
	logger.Noticef("scene information\n%s", buf.String())
	return nil
}

func writeSceneInfo(w io.Writer, a *loader.Assets, s loader.Settings) {
	objects := tablewriter.NewWriter(w)
	objects.SetAutoFormatHeaders(false)
	objects.SetAutoWrapText(false)
	objects.SetHeader([]string{"#", "Name", "Kind", "Class", "Shadow", "Center", "Extents"})
	var casters, blended int
	for _, obj := range a.Objects {
		b := obj.Bounds()
		if obj.CastsShadow() {
			casters++
		}
		if obj.Class().Blended() {
			blended++
		}
		objects.Append([]string{
			fmt.Sprintf("%d", obj.Index()),
			obj.Name(),
			obj.Kind().String(),
			obj.Class().String(),
			fmt.Sprintf("%t", obj.CastsShadow()),
			formatVec3(b.Center),
			formatVec3(b.Extents),
		})
	}
	bounds := a.Bounds()
	objects.SetFooter([]string{"", fmt.Sprintf("%d objects", len(a.Objects)), fmt.Sprintf("%d meshes", a.Meshes.Len()),
		fmt.Sprintf("%d blended", blended), fmt.Sprintf("%d casters", casters), formatVec3(bounds.Center), formatVec3(bounds.Extents)})
	objects.Render()

	l := a.Light
	lighting := tablewriter.NewWriter(w)
	lighting.SetAutoFormatHeaders(false)
	lighting.SetHeader([]string{"Light", "Value"})
	lighting.AppendBulk([][]string{
		{"direction", formatVec3(l.Direction())},
		{"radiance", formatVec3(l.Radiance())},
		{"ambient", formatVec3(l.Ambient())},
		{"ibl", fmt.Sprintf("%t", l.IBL())},
		{"shadows", fmt.Sprintf("%t", l.CastsShadows())},
	})
	if a.HasFocus {
		lighting.Append([]string{"focus", fmt.Sprintf("%s at %.2f", formatVec3(a.Focus), a.ViewDistance)})
	}
	lighting.Render()

	settings := tablewriter.NewWriter(w)
	settings.SetAutoFormatHeaders(false)
	settings.SetHeader([]string{"Setting", "Value"})
	settings.AppendBulk([][]string{
		{"frames in flight", fmt.Sprintf("%d", s.FrameCount)},
		{"cascades", fmt.Sprintf("%d x %d", s.Cascades, s.ShadowMapSize)},
		{"split blend", fmt.Sprintf("%.2f", s.SplitBlend)},
		{"loose coefficient", fmt.Sprintf("%.2f", s.LooseCoefficient)},
		{"taa", fmt.Sprintf("%t (blend %.2f, reject %.2f)", s.TAA.Enabled, s.TAA.BlendFactor, s.TAA.RejectThreshold)},
		{"exposure key", fmt.Sprintf("%.3f", s.ExposureKey)},
	})
	settings.Render()
}

func formatVec3(v common.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}
