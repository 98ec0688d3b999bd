package drivershim

const (
	// EyeCount and ChannelCount fix the model dimensions: two eyes, RGB.
	EyeCount     = 2
	ChannelCount = 3
)

// ChannelDistortion holds the Brown-Conrady parameters for one color
// channel of one eye. CenterX/CenterY are in pixels; k1..k3 are the
// radial coefficients.
type ChannelDistortion struct {
	CenterX float64
	CenterY float64
	K1      float64
	K2      float64
	K3      float64
}

// apply evaluates the channel's radial model at pixel (x, y) and maps
// the scaled, centered coordinate into tangent space through inv.
func (c ChannelDistortion) apply(x, y float64, inv Matrix3) Vector2 {
	dx := x - c.CenterX
	dy := y - c.CenterY
	r2 := dx*dx + dy*dy
	d := 1 + r2*(c.K1+r2*(c.K2+r2*c.K3))

	tx, ty, tw := inv.Apply(dx*d, dy*d)
	return Vector2{X: tx / tw, Y: ty / tw}
}

// DistortionModel is the full per-eye, per-channel parameter set. Value
// semantics: compared and replaced as a whole, never partially updated.
type DistortionModel [EyeCount][ChannelCount]ChannelDistortion

// EyeAffine is one eye's forward intrinsic transform and its inverse.
// The inverse is derived on every model reload.
type EyeAffine struct {
	Forward Matrix3
	Inverse Matrix3
}

// Matrix3 is a 3x3 matrix used with row-vector convention: points are
// (x, y, 1) row vectors multiplied on the left.
type Matrix3 [3][3]float64

// Identity3 returns the identity matrix.
func Identity3() Matrix3 {
	return Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply multiplies the row vector (x, y, 1) by m and returns the
// homogeneous result; callers normalize by pw.
func (m Matrix3) Apply(x, y float64) (px, py, pw float64) {
	px = x*m[0][0] + y*m[1][0] + m[2][0]
	py = x*m[0][1] + y*m[1][1] + m[2][1]
	pw = x*m[0][2] + y*m[1][2] + m[2][2]
	return px, py, pw
}

// Inverse returns the matrix inverse via the adjugate. The second result
// is false for a singular matrix, in which case the first is unchanged
// from the zero value.
func (m Matrix3) Inverse() (Matrix3, bool) {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if det == 0 {
		return Matrix3{}, false
	}

	inv := Matrix3{
		{
			(m[1][1]*m[2][2] - m[1][2]*m[2][1]) / det,
			(m[0][2]*m[2][1] - m[0][1]*m[2][2]) / det,
			(m[0][1]*m[1][2] - m[0][2]*m[1][1]) / det,
		},
		{
			(m[1][2]*m[2][0] - m[1][0]*m[2][2]) / det,
			(m[0][0]*m[2][2] - m[0][2]*m[2][0]) / det,
			(m[0][2]*m[1][0] - m[0][0]*m[1][2]) / det,
		},
		{
			(m[1][0]*m[2][1] - m[1][1]*m[2][0]) / det,
			(m[0][1]*m[2][0] - m[0][0]*m[2][1]) / det,
			(m[0][0]*m[1][1] - m[0][1]*m[1][0]) / det,
		},
	}
	return inv, true
}

// AffineMatrix builds the forward intrinsic matrix from focal lengths,
// principal point (both in pixels) and skew, row-vector convention.
func AffineMatrix(focalX, focalY, principalX, principalY, skew float64) Matrix3 {
	return Matrix3{
		{focalX, 0, 0},
		{skew, focalY, 0},
		{principalX, principalY, 1},
	}
}

// SettingsSection is the configuration section holding all distortion
// override values.
const SettingsSection = "driver_distortion_shim"

var (
	eyePrefix   = [EyeCount]string{"left", "right"}
	channelName = [ChannelCount]string{"red", "green", "blue"}
)

// readDistortionSettings loads the full model and both forward affine
// matrices from the settings store. Distance-like values are stored as
// fractions and denormalized by the eye's viewport pixel dimensions.
// Missing keys read as zero.
func readDistortionSettings(s Settings, viewport func(Eye) Viewport) (DistortionModel, [EyeCount]Matrix3) {
	var model DistortionModel
	var affine [EyeCount]Matrix3

	for eye := 0; eye < EyeCount; eye++ {
		vp := viewport(Eye(eye))
		w := float64(vp.Width)
		h := float64(vp.Height)
		prefix := eyePrefix[eye]

		for ch := 0; ch < ChannelCount; ch++ {
			base := prefix + "_" + channelName[ch]
			model[eye][ch] = ChannelDistortion{
				CenterX: s.GetFloat(SettingsSection, base+"_cod_x") * w,
				CenterY: s.GetFloat(SettingsSection, base+"_cod_y") * h,
				K1:      s.GetFloat(SettingsSection, base+"_k1"),
				K2:      s.GetFloat(SettingsSection, base+"_k2"),
				K3:      s.GetFloat(SettingsSection, base+"_k3"),
			}
		}

		affine[eye] = AffineMatrix(
			s.GetFloat(SettingsSection, prefix+"_focal_length_x")*w,
			s.GetFloat(SettingsSection, prefix+"_focal_length_y")*h,
			s.GetFloat(SettingsSection, prefix+"_principal_point_x")*w,
			s.GetFloat(SettingsSection, prefix+"_principal_point_y")*h,
			s.GetFloat(SettingsSection, prefix+"_skew_factor"),
		)
	}

	return model, affine
}
