// SPDX-License-Identifier: Unlicense OR MIT

package gl

type (
	Attrib uint
	Enum   uint
)

const (
	ACTIVE_ATTRIBUTES                         = 0x8b89
	ACTIVE_TEXTURE                            = 0x84e0
	ACTIVE_UNIFORMS                           = 0x8b86
	ACTIVE_UNIFORM_BLOCKS                     = 0x8a36
	ALREADY_SIGNALED                          = 0x911a
	ALWAYS                                    = 0x207
	ARRAY_BUFFER                              = 0x8892
	ARRAY_BUFFER_BINDING                      = 0x8894
	BACK                                      = 0x0405
	BACK_LEFT                                 = 0x0402
	BLEND                                     = 0xbe2
	BOOL                                      = 0x8b56
	BYTE                                      = 0x1400
	CCW                                       = 0x901
	CLAMP_TO_EDGE                             = 0x812f
	COLOR_ATTACHMENT0                         = 0x8ce0
	COLOR_ATTACHMENT1                         = 0x8ce1
	COLOR_BUFFER_BIT                          = 0x4000
	COMPARE_REF_TO_TEXTURE                    = 0x884e
	COMPILE_STATUS                            = 0x8b81
	COMPUTE_SHADER                            = 0x91b9
	CONDITION_SATISFIED                       = 0x911c
	CONSTANT_ALPHA                            = 0x8003
	CONTEXT_LOST                              = 0x0507
	CULL_FACE                                 = 0xb44
	CURRENT_PROGRAM                           = 0x8b8d
	CW                                        = 0x900
	DECR                                      = 0x1e03
	DEPTH                                     = 0x1801
	STENCIL                                   = 0x1802
	DEPTH24_STENCIL8                          = 0x88f0
	DEPTH_ATTACHMENT                          = 0x8d00
	DEPTH_BUFFER_BIT                          = 0x100
	DEPTH_COMPONENT                           = 0x1902
	DEPTH_COMPONENT24                         = 0x81a6
	DEPTH_COMPONENT32F                        = 0x8cac
	DEPTH_STENCIL                             = 0x84f9
	DEPTH_STENCIL_ATTACHMENT                  = 0x821a
	DEPTH_TEST                                = 0xb71
	DRAW_FRAMEBUFFER                          = 0x8ca9
	DST_ALPHA                                 = 0x304
	DST_COLOR                                 = 0x306
	DYNAMIC_DRAW                              = 0x88e8
	ELEMENT_ARRAY_BUFFER                      = 0x8893
	EQUAL                                     = 0x202
	EXTENSIONS                                = 0x1f03
	FALSE                                     = 0
	FLOAT                                     = 0x1406
	FLOAT_MAT2                                = 0x8b5a
	FLOAT_MAT3                                = 0x8b5b
	FLOAT_MAT4                                = 0x8b5c
	FLOAT_VEC2                                = 0x8b50
	FLOAT_VEC3                                = 0x8b51
	FLOAT_VEC4                                = 0x8b52
	FRAGMENT_SHADER                           = 0x8b30
	FRAMEBUFFER                               = 0x8d40
	FRAMEBUFFER_ATTACHMENT_ALPHA_SIZE         = 0x2215
	FRAMEBUFFER_ATTACHMENT_BLUE_SIZE          = 0x2214
	FRAMEBUFFER_ATTACHMENT_COLOR_ENCODING     = 0x8210
	FRAMEBUFFER_ATTACHMENT_DEPTH_SIZE         = 0x2216
	FRAMEBUFFER_ATTACHMENT_GREEN_SIZE         = 0x2213
	FRAMEBUFFER_ATTACHMENT_RED_SIZE           = 0x2212
	FRAMEBUFFER_ATTACHMENT_STENCIL_SIZE       = 0x2217
	FRAMEBUFFER_BINDING                       = 0x8ca6
	FRAMEBUFFER_COMPLETE                      = 0x8cd5
	FRAMEBUFFER_INCOMPLETE_ATTACHMENT         = 0x8cd6
	FRAMEBUFFER_INCOMPLETE_DIMENSIONS         = 0x8cd9
	FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT = 0x8cd7
	FRAMEBUFFER_INCOMPLETE_MULTISAMPLE        = 0x8d56
	FRAMEBUFFER_SRGB                          = 0x8db9
	FRAMEBUFFER_UNSUPPORTED                   = 0x8cdd
	FRONT                                     = 0x404
	FRONT_AND_BACK                            = 0x408
	FUNC_ADD                                  = 0x8006
	FUNC_REVERSE_SUBTRACT                     = 0x800b
	FUNC_SUBTRACT                             = 0x800a
	GEQUAL                                    = 0x206
	GREATER                                   = 0x204
	GUILTY_CONTEXT_RESET                      = 0x8253
	HALF_FLOAT                                = 0x140b
	INCR                                      = 0x1e02
	INFO_LOG_LENGTH                           = 0x8b84
	INNOCENT_CONTEXT_RESET                    = 0x8254
	INT                                       = 0x1404
	INT_VEC2                                  = 0x8b53
	INT_VEC3                                  = 0x8b54
	INT_VEC4                                  = 0x8b55
	INVALID_ENUM                              = 0x0500
	INVALID_INDEX                             = ^uint(0)
	INVALID_OPERATION                         = 0x0502
	INVALID_VALUE                             = 0x0501
	INVERT                                    = 0x150a
	KEEP                                      = 0x1e00
	LEQUAL                                    = 0x203
	LESS                                      = 0x201
	LINEAR                                    = 0x2601
	LINEAR_MIPMAP_LINEAR                      = 0x2703
	LINEAR_MIPMAP_NEAREST                     = 0x2701
	LINES                                     = 0x1
	LINE_STRIP                                = 0x3
	LINK_STATUS                               = 0x8b82
	MAX                                       = 0x8008
	MAX_COLOR_ATTACHMENTS                     = 0x8cdf
	MAX_COMBINED_TEXTURE_IMAGE_UNITS          = 0x8b4d
	MAX_SAMPLES                               = 0x8d57
	MAX_TEXTURE_MAX_ANISOTROPY_EXT            = 0x84ff
	MAX_TEXTURE_SIZE                          = 0xd33
	MAX_UNIFORM_BUFFER_BINDINGS               = 0x8a2f
	MAX_VERTEX_ATTRIBS                        = 0x8869
	MIN                                       = 0x8007
	MIRRORED_REPEAT                           = 0x8370
	NEAREST                                   = 0x2600
	NEAREST_MIPMAP_LINEAR                     = 0x2702
	NEAREST_MIPMAP_NEAREST                    = 0x2700
	NEVER                                     = 0x200
	NONE                                      = 0x0
	NOTEQUAL                                  = 0x205
	NO_ERROR                                  = 0x0
	NUM_EXTENSIONS                            = 0x821d
	ONE                                       = 0x1
	ONE_MINUS_DST_ALPHA                       = 0x305
	ONE_MINUS_DST_COLOR                       = 0x307
	ONE_MINUS_SRC_ALPHA                       = 0x303
	ONE_MINUS_SRC_COLOR                       = 0x301
	OUT_OF_MEMORY                             = 0x0505
	PACK_ALIGNMENT                            = 0xd05
	POINTS                                    = 0x0
	R8                                        = 0x8229
	READ_FRAMEBUFFER                          = 0x8ca8
	RED                                       = 0x1903
	RENDERBUFFER                              = 0x8d41
	RENDERER                                  = 0x1f01
	REPEAT                                    = 0x2901
	REPLACE                                   = 0x1e01
	RGBA                                      = 0x1908
	RGBA16F                                   = 0x881a
	RGBA32F                                   = 0x8814
	RGBA8                                     = 0x8058
	SAMPLES                                   = 0x80a9
	SAMPLER_2D                                = 0x8b5e
	SAMPLER_2D_SHADOW                         = 0x8b62
	SAMPLER_BINDING                           = 0x8919
	SAMPLER_CUBE                              = 0x8b60
	SCISSOR_TEST                              = 0xc11
	SHORT                                     = 0x1402
	SRC_ALPHA                                 = 0x302
	SRC_COLOR                                 = 0x300
	SRGB                                      = 0x8c40
	SRGB8_ALPHA8                              = 0x8c43
	STATIC_DRAW                               = 0x88e4
	STENCIL_ATTACHMENT                        = 0x8d20
	STENCIL_BUFFER_BIT                        = 0x400
	STENCIL_INDEX8                            = 0x8d48
	STENCIL_TEST                              = 0xb90
	STREAM_DRAW                               = 0x88e0
	SYNC_FLUSH_COMMANDS_BIT                   = 0x1
	SYNC_GPU_COMMANDS_COMPLETE                = 0x9117
	TEXTURE0                                  = 0x84c0
	TEXTURE_2D                                = 0xde1
	TEXTURE_BINDING_2D                        = 0x8069
	TEXTURE_COMPARE_FUNC                      = 0x884d
	TEXTURE_COMPARE_MODE                      = 0x884c
	TEXTURE_CUBE_MAP                          = 0x8513
	TEXTURE_CUBE_MAP_POSITIVE_X               = 0x8515
	TEXTURE_MAG_FILTER                        = 0x2800
	TEXTURE_MAX_ANISOTROPY_EXT                = 0x84fe
	TEXTURE_MAX_LEVEL                         = 0x813d
	TEXTURE_MAX_LOD                           = 0x813b
	TEXTURE_MIN_FILTER                        = 0x2801
	TEXTURE_MIN_LOD                           = 0x813a
	TEXTURE_WRAP_R                            = 0x8072
	TEXTURE_WRAP_S                            = 0x2802
	TEXTURE_WRAP_T                            = 0x2803
	TIMEOUT_EXPIRED                           = 0x911b
	TRIANGLES                                 = 0x4
	TRIANGLE_FAN                              = 0x6
	TRIANGLE_STRIP                            = 0x5
	TRUE                                      = 1
	UNIFORM_BUFFER                            = 0x8a11
	UNKNOWN_CONTEXT_RESET                     = 0x8255
	UNPACK_ALIGNMENT                          = 0xcf5
	UNSIGNED_BYTE                             = 0x1401
	UNSIGNED_INT                              = 0x1405
	UNSIGNED_INT_24_8                         = 0x84fa
	UNSIGNED_INT_VEC2                         = 0x8dc6
	UNSIGNED_SHORT                            = 0x1403
	VERSION                                   = 0x1f02
	VERTEX_SHADER                             = 0x8b31
	WAIT_FAILED                               = 0x911d
	ZERO                                      = 0x0
)

// TimeoutIgnored is the timeout argument for an unbounded ClientWaitSync.
const TimeoutIgnored = ^uint64(0)
