package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/csm/rt/lighting"
	"github.com/gekko3d/csm/rt/shadows"
	"github.com/gekko3d/csm/rt/uniform"
)

// DepthBias is the bias the caster pipeline should render one tile with.
// WebGPU fixes depth bias per pipeline, so drawers pick a pipeline for it.
type DepthBias struct {
	Constant   float32
	SlopeScale float32
}

// CasterDrawer encodes the shadow casters of one cascade into the open
// depth-only pass. The viewport is already restricted to the tile.
type CasterDrawer interface {
	DrawCasters(pass *wgpu.RenderPassEncoder, draw shadows.ShadowDrawSettings, view, proj mgl32.Mat4, bias DepthBias) error
}

// AtlasTarget is a lighting.CommandBuffer backed by a Depth32Float atlas
// texture. All tiles of a frame are drawn in one render pass.
type AtlasTarget struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	AtlasTexture *wgpu.Texture
	AtlasView    *wgpu.TextureView
	atlasSize    int

	ShadowsBuf *wgpu.Buffer
	LightsBuf  *wgpu.Buffer

	drawer    CasterDrawer
	reversedZ bool

	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	handle  shadows.AtlasHandle
	view    mgl32.Mat4
	proj    mgl32.Mat4
	bias    DepthBias

	shadowBytes []byte
	errs        []error
}

var _ lighting.CommandBuffer = (*AtlasTarget)(nil)

// NewAtlasTarget creates the uniform buffers. The atlas texture is created
// on first use. reversedZ must match the host's Capabilities.
func NewAtlasTarget(device *wgpu.Device, drawer CasterDrawer, reversedZ bool) (*AtlasTarget, error) {
	t := &AtlasTarget{
		Device:    device,
		Queue:     device.GetQueue(),
		drawer:    drawer,
		reversedZ: reversedZ,
	}

	var err error
	t.ShadowsBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "DirectionalShadowsBuf",
		Size:  uniform.DirectionalShadowsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shadow uniform buffer: %w", err)
	}
	t.LightsBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "DirectionalLightsBuf",
		Size:  uniform.LightsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		t.ShadowsBuf.Release()
		return nil, fmt.Errorf("failed to create light uniform buffer: %w", err)
	}
	return t, nil
}

// Err returns and clears the errors collected since the last call. The
// CommandBuffer methods cannot fail, so failures are kept here.
func (t *AtlasTarget) Err() error {
	err := errors.Join(t.errs...)
	t.errs = nil
	return err
}

func (t *AtlasTarget) fail(err error) {
	t.errs = append(t.errs, err)
}

func (t *AtlasTarget) ensureAtlas(size int) error {
	if t.AtlasTexture != nil && t.atlasSize == size {
		return nil
	}
	t.releaseAtlasTexture()

	tex, err := t.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Directional Shadow Atlas",
		Size: wgpu.Extent3D{
			Width:              uint32(size),
			Height:             uint32(size),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow atlas: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create shadow atlas view: %w", err)
	}
	t.AtlasTexture = tex
	t.AtlasView = view
	t.atlasSize = size
	return nil
}

func (t *AtlasTarget) releaseAtlasTexture() {
	if t.AtlasView != nil {
		t.AtlasView.Release()
		t.AtlasView = nil
	}
	if t.AtlasTexture != nil {
		t.AtlasTexture.Release()
		t.AtlasTexture = nil
	}
	t.atlasSize = 0
}

func (t *AtlasTarget) clearDepth() float32 {
	if t.reversedZ {
		return 0
	}
	return 1
}

// AcquireAtlas opens the depth pass. The texture is reused while the size
// stays the same.
func (t *AtlasTarget) AcquireAtlas(size int) shadows.AtlasHandle {
	t.handle = shadows.AtlasHandle{ID: uuid.New(), Size: size}
	if err := t.ensureAtlas(size); err != nil {
		t.fail(err)
		return t.handle
	}

	encoder, err := t.Device.CreateCommandEncoder(nil)
	if err != nil {
		t.fail(fmt.Errorf("failed to create shadow encoder: %w", err))
		return t.handle
	}
	t.encoder = encoder
	t.pass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            t.AtlasView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: t.clearDepth(),
		},
	})
	return t.handle
}

func (t *AtlasTarget) SetViewport(v shadows.Viewport) {
	if t.pass == nil {
		return
	}
	t.pass.SetViewport(v.X, v.Y, v.Width, v.Height, 0, 1)
	t.pass.SetScissorRect(uint32(v.X), uint32(v.Y), uint32(v.Width), uint32(v.Height))
}

func (t *AtlasTarget) SetViewProjection(view, proj mgl32.Mat4) {
	t.view = view
	t.proj = proj
}

func (t *AtlasTarget) SetDepthBias(constant, slope float32) {
	t.bias = DepthBias{Constant: constant, SlopeScale: slope}
}

func (t *AtlasTarget) DrawShadows(d shadows.ShadowDrawSettings) {
	if t.pass == nil || t.drawer == nil {
		return
	}
	if err := t.drawer.DrawCasters(t.pass, d, t.view, t.proj, t.bias); err != nil {
		t.fail(fmt.Errorf("light %d cascade %d: %w", d.VisibleLightIndex, d.SplitIndex, err))
	}
}

// EndAtlas closes the pass and submits it.
func (t *AtlasTarget) EndAtlas() {
	if t.pass == nil {
		return
	}
	if err := t.pass.End(); err != nil {
		t.fail(fmt.Errorf("failed to end shadow pass: %w", err))
	}
	t.pass.Release()
	t.pass = nil

	cmd, err := t.encoder.Finish(nil)
	if err != nil {
		t.fail(fmt.Errorf("failed to finish shadow encoder: %w", err))
	} else {
		t.Queue.Submit(cmd)
		cmd.Release()
	}
	t.encoder.Release()
	t.encoder = nil
}

func (t *AtlasTarget) PublishDirectionalShadows(g *shadows.DirectionalShadowGlobals) {
	t.shadowBytes = uniform.MarshalDirectionalShadows(g, shadows.ShadowMaskSelector{})
}

// PublishShadowMask completes the shadow uniform and uploads it. Frames
// without atlas tiles upload an empty shadow block carrying only the mask.
func (t *AtlasTarget) PublishShadowMask(m shadows.ShadowMaskSelector) {
	if t.shadowBytes == nil {
		t.shadowBytes = uniform.MarshalDirectionalShadows(&shadows.DirectionalShadowGlobals{}, m)
	} else {
		uniform.PatchShadowMask(t.shadowBytes, m)
	}
	if err := t.Queue.WriteBuffer(t.ShadowsBuf, 0, t.shadowBytes); err != nil {
		t.fail(fmt.Errorf("failed to upload shadow uniform: %w", err))
	}
	t.shadowBytes = nil
}

func (t *AtlasTarget) PublishLights(g *lighting.LightGlobals) {
	if err := t.Queue.WriteBuffer(t.LightsBuf, 0, uniform.MarshalLights(g)); err != nil {
		t.fail(fmt.Errorf("failed to upload light uniform: %w", err))
	}
}

// ReleaseAtlas ends the handle's frame. The texture stays pooled for the
// next frame of the same size.
func (t *AtlasTarget) ReleaseAtlas(h shadows.AtlasHandle) {
	if h.ID != t.handle.ID {
		t.fail(fmt.Errorf("release of unknown atlas %s", h.ID))
		return
	}
	t.handle = shadows.AtlasHandle{}
}

// Release frees every GPU resource owned by the target.
func (t *AtlasTarget) Release() {
	t.releaseAtlasTexture()
	if t.ShadowsBuf != nil {
		t.ShadowsBuf.Release()
		t.ShadowsBuf = nil
	}
	if t.LightsBuf != nil {
		t.LightsBuf.Release()
		t.LightsBuf = nil
	}
}
